package watch

import (
	"crypto_dash/internal/server"
	"fmt"
	"io"
	"strings"
)

const rowFormat = "%-4s %-10s %-6s %14s %8s %8s %8s %10s %10s %s\n"

// Render writes frame as a fixed-width table followed by the portfolio
// headline.
func Render(w io.Writer, f server.SnapshotFrame) error {
	var b strings.Builder

	filter := f.Filter
	if filter == "" {
		filter = "-"
	}
	fmt.Fprintf(&b, "feed: %s  version: %d  sort: %s %s  filter: %s\n\n",
		f.Feed, f.Version, f.SortBy, f.SortDirection, filter)
	fmt.Fprintf(&b, rowFormat, "#", "NAME", "SYM", "PRICE", "1H", "24H", "7D", "MCAP", "VOL 24H", "")

	for _, r := range f.Table {
		mark := ""
		if r.IsUpdating {
			mark = "*"
		}
		fmt.Fprintf(&b, rowFormat,
			fmt.Sprint(r.Rank),
			truncate(r.Name, 10),
			truncate(r.Symbol, 6),
			FormatUSD(r.Price),
			FormatChange(r.PriceChange1h),
			FormatChange(r.PriceChange24h),
			FormatChange(r.PriceChange7d),
			FormatLarge(r.MarketCap),
			FormatLarge(r.Volume24h),
			mark)
	}
	if len(f.Table) == 0 {
		b.WriteString("(no assets match)\n")
	}

	p := f.Portfolio
	wallet := "disconnected"
	if p.WalletConnected {
		wallet = "connected"
	}
	fmt.Fprintf(&b, "\nportfolio: %s  %s 24h  assets: %d  wallet: %s\n",
		FormatUSD(p.Total), FormatChange(p.Summary.Change24h), p.Summary.Assets, wallet)

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
