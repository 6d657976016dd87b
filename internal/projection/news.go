package projection

import (
	"crypto_dash/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

// RelatedAsset is the ledger view attached to a news item.
type RelatedAsset struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
}

// NewsItem is an article joined with its related assets.
type NewsItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	Source      string         `json:"source"`
	URL         string         `json:"url"`
	PublishedAt time.Time      `json:"publishedAt"`
	Related     []RelatedAsset `json:"related"`
}

// News joins every article with the ledger records it references. Unknown
// ids are skipped.
func News(state *domain.LedgerState, articles []domain.NewsArticle) []NewsItem {
	out := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		out = append(out, newsItem(state, a))
	}
	return out
}

// NewsFor keeps only the articles mentioning asset id.
func NewsFor(state *domain.LedgerState, articles []domain.NewsArticle, id string) []NewsItem {
	out := make([]NewsItem, 0)
	for _, a := range articles {
		if a.Mentions(id) {
			out = append(out, newsItem(state, a))
		}
	}
	return out
}

func newsItem(state *domain.LedgerState, a domain.NewsArticle) NewsItem {
	item := NewsItem{
		ID:          a.ID,
		Title:       a.Title,
		Summary:     a.Summary,
		Source:      a.Source,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		Related:     make([]RelatedAsset, 0, len(a.RelatedAssets)),
	}
	for _, id := range a.RelatedAssets {
		rec, ok := state.Asset(id)
		if !ok {
			continue
		}
		item.Related = append(item.Related, RelatedAsset{
			ID:             rec.ID,
			Name:           rec.Name,
			Symbol:         rec.Symbol,
			Price:          rec.Price,
			PriceChange24h: rec.PriceChange24h,
		})
	}
	return item
}
