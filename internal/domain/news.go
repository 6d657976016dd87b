package domain

import "time"

// NewsArticle is a static news item cross-referenced to assets by id.
type NewsArticle struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Source        string    `json:"source"`
	URL           string    `json:"url"`
	PublishedAt   time.Time `json:"publishedAt"`
	RelatedAssets []string  `json:"relatedAssets"`
}

// Mentions reports whether the article is related to asset id.
func (a NewsArticle) Mentions(id string) bool {
	for _, rel := range a.RelatedAssets {
		if rel == id {
			return true
		}
	}
	return false
}
