package domain

import "sort"

// LedgerState is a point-in-time view of the ledger.
// Published states are immutable: writers build a new LedgerState for every
// commit, so readers may hold one for as long as they like without locking.
type LedgerState struct {
	Version       uint64                 `json:"version"`
	Assets        map[string]AssetRecord `json:"assets"`
	SortBy        SortColumn             `json:"sortBy"`
	SortDirection SortDirection          `json:"sortDirection"`
	Filter        string                 `json:"filter"`
}

// NewLedgerState builds the initial state: rank ascending, no filter.
// Later duplicates of an id replace earlier ones.
func NewLedgerState(assets []AssetRecord) *LedgerState {
	m := make(map[string]AssetRecord, len(assets))
	for _, a := range assets {
		m[a.ID] = a.Clone()
	}
	return &LedgerState{
		Assets:        m,
		SortBy:        ColRank,
		SortDirection: Ascending,
	}
}

// Asset looks up a record by id.
func (s *LedgerState) Asset(id string) (AssetRecord, bool) {
	a, ok := s.Assets[id]
	return a, ok
}

// IDs returns the asset identifiers in lexical order.
func (s *LedgerState) IDs() []string {
	ids := make([]string, 0, len(s.Assets))
	for id := range s.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *LedgerState) Len() int {
	return len(s.Assets)
}

// Clone returns a deep copy.
func (s *LedgerState) Clone() *LedgerState {
	out := *s
	out.Assets = make(map[string]AssetRecord, len(s.Assets))
	for id, a := range s.Assets {
		out.Assets[id] = a.Clone()
	}
	return &out
}

// WithAsset returns a shallow copy of s whose asset map has rec under rec.ID.
// Untouched records are shared with s.
func (s *LedgerState) WithAsset(rec AssetRecord) *LedgerState {
	out := *s
	out.Assets = make(map[string]AssetRecord, len(s.Assets))
	for id, a := range s.Assets {
		out.Assets[id] = a
	}
	out.Assets[rec.ID] = rec
	return &out
}
