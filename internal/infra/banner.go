package infra

import (
	"fmt"
	"io"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// PrintBanner writes the startup banner for the server.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorGreen
	if cfg.Tape.Enabled {
		color = ColorCyan
	}

	mirror := "OFF"
	if cfg.Mirror.RedisAddr != "" {
		mirror = cfg.Mirror.RedisAddr
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#               📈 Crypto Dash Market Feed                #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   LISTEN:  %-44s #%s\n", color, cfg.Server.Addr, ColorReset)
	fmt.Fprintf(w, "%s#   FEED:    %-44s #%s\n", color, fmt.Sprintf("%dms, auto-connect %s", cfg.Feed.IntervalMS, onOff(cfg.Feed.AutoConnect)), ColorReset)
	fmt.Fprintf(w, "%s#   TAPE:    %-44s #%s\n", color, onOff(cfg.Tape.Enabled), ColorReset)
	fmt.Fprintf(w, "%s#   MIRROR:  %-44s #%s\n", color, mirror, ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)

	if cfg.Ledger.CancelSupersededClears {
		fmt.Fprintf(w, "%s#   NOTE: superseded highlight clears are cancelled       #%s\n", ColorYellow, ColorReset)
	}

	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}
