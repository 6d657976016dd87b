package projection

import (
	"crypto_dash/internal/domain"

	"github.com/shopspring/decimal"
)

// Portfolio joins holdings with the ledger. Holdings whose asset is not in
// the ledger are dropped from both the lines and the total.
func Portfolio(state *domain.LedgerState, holdings []domain.HoldingEntry) ([]domain.PortfolioLine, decimal.Decimal) {
	lines := make([]domain.PortfolioLine, 0, len(holdings))
	total := decimal.Zero

	for _, h := range holdings {
		rec, ok := state.Asset(h.ID)
		if !ok {
			continue
		}
		value := h.Amount.Mul(rec.Price)
		lines = append(lines, domain.PortfolioLine{
			ID:             rec.ID,
			Name:           rec.Name,
			Symbol:         rec.Symbol,
			Price:          rec.Price,
			PriceChange24h: rec.PriceChange24h,
			PriceChange7d:  rec.PriceChange7d,
			Quantity:       h.Amount,
			Value:          value,
			Sparkline:      rec.Sparkline,
		})
		total = total.Add(value)
	}
	return lines, total
}

// Summary is the headline figure of the holdings view.
type Summary struct {
	Assets    int             `json:"assets"`
	Total     decimal.Decimal `json:"total"`
	Change24h decimal.Decimal `json:"change24h"` // value-weighted, percentage points
}

// Summarize computes the asset count and value-weighted 24h change of lines.
// An empty or zero-valued portfolio reports no change.
func Summarize(lines []domain.PortfolioLine, total decimal.Decimal) Summary {
	s := Summary{Assets: len(lines), Total: total, Change24h: decimal.Zero}
	if total.IsZero() {
		return s
	}

	weighted := decimal.Zero
	for _, l := range lines {
		weighted = weighted.Add(l.Value.Mul(l.PriceChange24h))
	}
	s.Change24h = weighted.DivRound(total, 2)
	return s
}
