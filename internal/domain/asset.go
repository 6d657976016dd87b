package domain

import "github.com/shopspring/decimal"

// AssetRecord is the ledger entry for one tradable asset.
// Percentages are in percentage points (0.93 = +0.93%).
type AssetRecord struct {
	ID                string           `json:"id"`
	Rank              int              `json:"rank"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Price             decimal.Decimal  `json:"price"`
	PriceChange1h     decimal.Decimal  `json:"priceChange1h"`
	PriceChange24h    decimal.Decimal  `json:"priceChange24h"`
	PriceChange7d     decimal.Decimal  `json:"priceChange7d"`
	MarketCap         decimal.Decimal  `json:"marketCap"`
	Volume24h         decimal.Decimal  `json:"volume24h"`
	CirculatingSupply decimal.Decimal  `json:"circulatingSupply"`
	MaxSupply         *decimal.Decimal `json:"maxSupply"` // nil means uncapped
	Sparkline         Sparkline        `json:"sparkline"`
	IsUpdating        bool             `json:"isUpdating"`
}

// Clone returns a deep copy that shares no mutable storage with r.
func (r AssetRecord) Clone() AssetRecord {
	out := r
	out.Sparkline = r.Sparkline.Clone()
	if r.MaxSupply != nil {
		ms := *r.MaxSupply
		out.MaxSupply = &ms
	}
	return out
}

// Capped reports whether the asset has a maximum supply.
func (r AssetRecord) Capped() bool {
	return r.MaxSupply != nil
}
