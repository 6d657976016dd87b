package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func supply(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func line(samples ...string) Sparkline {
	out := make(Sparkline, len(samples))
	for i, s := range samples {
		out[i] = dec(s)
	}
	return out
}

// SeedAssets returns the asset set the ledger starts from.
func SeedAssets() []AssetRecord {
	return []AssetRecord{
		{
			ID: "bitcoin", Rank: 1, Name: "Bitcoin", Symbol: "BTC",
			Price: dec("93759.48"), PriceChange1h: dec("0.43"), PriceChange24h: dec("0.93"), PriceChange7d: dec("11.11"),
			MarketCap: dec("1861618902186"), Volume24h: dec("43874950947"),
			CirculatingSupply: dec("19.85"), MaxSupply: supply("21"),
			Sparkline: line("62000", "63000", "62500", "64000", "65000", "66000", "67000", "68000",
				"70000", "72000", "75000", "80000", "85000", "90000", "93759"),
		},
		{
			ID: "ethereum", Rank: 2, Name: "Ethereum", Symbol: "ETH",
			Price: dec("1802.46"), PriceChange1h: dec("0.60"), PriceChange24h: dec("3.21"), PriceChange7d: dec("13.68"),
			MarketCap: dec("217581279327"), Volume24h: dec("23547469307"),
			CirculatingSupply: dec("120.71"),
			Sparkline: line("1500", "1520", "1510", "1530", "1550", "1570", "1600", "1650",
				"1700", "1750", "1800", "1825", "1815", "1802", "1802.46"),
		},
		{
			ID: "tether", Rank: 3, Name: "Tether", Symbol: "USDT",
			Price: dec("1.00"), PriceChange1h: dec("0.00"), PriceChange24h: dec("0.00"), PriceChange7d: dec("0.04"),
			MarketCap: dec("145320022085"), Volume24h: dec("92288882007"),
			CirculatingSupply: dec("145.27"),
			Sparkline: line("1.00", "1.00", "0.999", "0.998", "1.001", "1.002", "1.000", "1.000",
				"0.999", "0.999", "1.000", "1.000", "1.000", "1.000", "1.00"),
		},
		{
			ID: "xrp", Rank: 4, Name: "XRP", Symbol: "XRP",
			Price: dec("2.22"), PriceChange1h: dec("0.46"), PriceChange24h: dec("0.54"), PriceChange7d: dec("6.18"),
			MarketCap: dec("130073814966"), Volume24h: dec("5131481491"),
			CirculatingSupply: dec("58.39"), MaxSupply: supply("100"),
			Sparkline: line("2.00", "2.02", "2.03", "2.05", "2.07", "2.10", "2.15", "2.12",
				"2.08", "2.10", "2.15", "2.18", "2.20", "2.21", "2.22"),
		},
		{
			ID: "bnb", Rank: 5, Name: "BNB", Symbol: "BNB",
			Price: dec("606.65"), PriceChange1h: dec("0.09"), PriceChange24h: dec("-1.20"), PriceChange7d: dec("3.73"),
			MarketCap: dec("85471956947"), Volume24h: dec("1874281784"),
			CirculatingSupply: dec("140.89"), MaxSupply: supply("200"),
			Sparkline: line("580", "585", "590", "585", "580", "575", "580", "585",
				"595", "600", "605", "610", "605", "600", "606.65"),
		},
		{
			ID: "solana", Rank: 6, Name: "Solana", Symbol: "SOL",
			Price: dec("151.51"), PriceChange1h: dec("0.53"), PriceChange24h: dec("1.26"), PriceChange7d: dec("14.74"),
			MarketCap: dec("78381958631"), Volume24h: dec("4881674486"),
			CirculatingSupply: dec("517.31"),
			Sparkline: line("125", "127", "130", "132", "135", "138", "140", "143",
				"145", "147", "149", "150", "149", "150", "151.51"),
		},
	}
}

// SeedHoldings returns the demo holdings collection.
func SeedHoldings() []HoldingEntry {
	return []HoldingEntry{
		{ID: "bitcoin", Amount: dec("0.25")},
		{ID: "ethereum", Amount: dec("3.5")},
		{ID: "solana", Amount: dec("10")},
	}
}

func published(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedNews returns the static news set.
func SeedNews() []NewsArticle {
	return []NewsArticle{
		{
			ID:            "1",
			Title:         "Bitcoin Breaks $90,000 for the First Time",
			Summary:       "Bitcoin has surpassed $90,000, marking a new all-time high as institutional adoption continues to grow.",
			Source:        "CryptoNews",
			URL:           "#",
			PublishedAt:   published("2025-04-23T10:30:00Z"),
			RelatedAssets: []string{"bitcoin"},
		},
		{
			ID:            "2",
			Title:         "Ethereum ETFs Receive Approval from SEC",
			Summary:       "The SEC has approved the first Ethereum ETFs, allowing traditional investors easy access to the second-largest cryptocurrency.",
			Source:        "Blockchain Times",
			URL:           "#",
			PublishedAt:   published("2025-04-23T08:15:00Z"),
			RelatedAssets: []string{"ethereum"},
		},
		{
			ID:            "3",
			Title:         "Solana DeFi Ecosystem Surpasses $50 Billion in Total Value Locked",
			Summary:       "Solana-based DeFi protocols have collectively reached $50 billion in TVL, showing strong growth in the ecosystem.",
			Source:        "DeFi Pulse",
			URL:           "#",
			PublishedAt:   published("2025-04-22T16:45:00Z"),
			RelatedAssets: []string{"solana"},
		},
		{
			ID:            "4",
			Title:         "Tether Issues Transparency Report, Confirms Full Backing of USDT",
			Summary:       "Tether has released its quarterly transparency report, confirming that all USDT tokens are fully backed by reserves.",
			Source:        "Stablecoin News",
			URL:           "#",
			PublishedAt:   published("2025-04-22T14:20:00Z"),
			RelatedAssets: []string{"tether"},
		},
		{
			ID:            "5",
			Title:         "BNB Chain Announces Major Protocol Upgrade for Enhanced Scalability",
			Summary:       "BNB Chain has unveiled plans for a significant protocol upgrade aimed at improving network scalability and performance.",
			Source:        "Chain Update",
			URL:           "#",
			PublishedAt:   published("2025-04-21T11:00:00Z"),
			RelatedAssets: []string{"bnb"},
		},
	}
}
