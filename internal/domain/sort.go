package domain

// SortColumn names a table column. Unknown values are accepted and stored;
// the table projection falls back to rank for them.
type SortColumn string

const (
	ColRank              SortColumn = "rank"
	ColName              SortColumn = "name"
	ColSymbol            SortColumn = "symbol"
	ColPrice             SortColumn = "price"
	ColChange1h          SortColumn = "priceChange1h"
	ColChange24h         SortColumn = "priceChange24h"
	ColChange7d          SortColumn = "priceChange7d"
	ColMarketCap         SortColumn = "marketCap"
	ColVolume24h         SortColumn = "volume24h"
	ColCirculatingSupply SortColumn = "circulatingSupply"
)

// Known reports whether c is one of the sortable columns.
func (c SortColumn) Known() bool {
	switch c {
	case ColRank, ColName, ColSymbol, ColPrice, ColChange1h, ColChange24h,
		ColChange7d, ColMarketCap, ColVolume24h, ColCirculatingSupply:
		return true
	}
	return false
}

// IsText reports whether c compares as a string.
func (c SortColumn) IsText() bool {
	return c == ColName || c == ColSymbol
}

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}
