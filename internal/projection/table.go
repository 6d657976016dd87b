// Package projection derives read-only views from ledger and portfolio
// snapshots. Every function is pure: it never modifies its inputs and returns
// freshly allocated results.
package projection

import (
	"cmp"
	"crypto_dash/internal/domain"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Table returns the records matching the state's filter, ordered by its sort
// column and direction. Unknown columns sort by rank. Ties keep id order.
func Table(state *domain.LedgerState) []domain.AssetRecord {
	fold := cases.Fold()
	needle := fold.String(state.Filter)

	out := make([]domain.AssetRecord, 0, state.Len())
	for _, id := range state.IDs() {
		rec := state.Assets[id]
		if needle == "" ||
			strings.Contains(fold.String(rec.Name), needle) ||
			strings.Contains(fold.String(rec.Symbol), needle) {
			out = append(out, rec)
		}
	}

	col := state.SortBy
	if !col.Known() {
		col = domain.ColRank
	}
	desc := state.SortDirection == domain.Descending

	var coll *collate.Collator
	if col.IsText() {
		coll = collate.New(language.English)
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(coll, col, out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(coll *collate.Collator, col domain.SortColumn, a, b domain.AssetRecord) int {
	switch col {
	case domain.ColName:
		return coll.CompareString(a.Name, b.Name)
	case domain.ColSymbol:
		return coll.CompareString(a.Symbol, b.Symbol)
	case domain.ColPrice:
		return a.Price.Cmp(b.Price)
	case domain.ColChange1h:
		return a.PriceChange1h.Cmp(b.PriceChange1h)
	case domain.ColChange24h:
		return a.PriceChange24h.Cmp(b.PriceChange24h)
	case domain.ColChange7d:
		return a.PriceChange7d.Cmp(b.PriceChange7d)
	case domain.ColMarketCap:
		return a.MarketCap.Cmp(b.MarketCap)
	case domain.ColVolume24h:
		return a.Volume24h.Cmp(b.Volume24h)
	case domain.ColCirculatingSupply:
		return a.CirculatingSupply.Cmp(b.CirculatingSupply)
	default:
		return cmp.Compare(a.Rank, b.Rank)
	}
}
