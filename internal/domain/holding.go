package domain

import "github.com/shopspring/decimal"

// HoldingEntry is a quantity of one asset held by the user.
type HoldingEntry struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

// PortfolioState is a point-in-time view of the holdings collection.
// Like LedgerState it is immutable once published.
type PortfolioState struct {
	Version         uint64         `json:"version"`
	Holdings        []HoldingEntry `json:"holdings"`
	WalletConnected bool           `json:"walletConnected"`
}

// Clone returns a copy with its own holdings slice.
func (p *PortfolioState) Clone() *PortfolioState {
	out := *p
	out.Holdings = make([]HoldingEntry, len(p.Holdings))
	copy(out.Holdings, p.Holdings)
	return &out
}

// Index returns the position of the first entry for id, or -1.
func (p *PortfolioState) Index(id string) int {
	for i, h := range p.Holdings {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// PortfolioLine joins a holding with the current asset record.
type PortfolioLine struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
	PriceChange7d  decimal.Decimal `json:"priceChange7d"`
	Quantity       decimal.Decimal `json:"quantity"`
	Value          decimal.Decimal `json:"value"`
	Sparkline      Sparkline       `json:"sparkline"`
}
