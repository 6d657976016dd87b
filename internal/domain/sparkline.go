package domain

import "github.com/shopspring/decimal"

// Sparkline is a fixed-width window of recent prices, oldest first.
type Sparkline []decimal.Decimal

// Push returns a new window with the oldest sample dropped and p appended.
// The receiver is left untouched, so snapshots holding it stay valid.
// An empty window stays empty.
func (s Sparkline) Push(p decimal.Decimal) Sparkline {
	if len(s) == 0 {
		return s
	}
	next := make(Sparkline, len(s))
	copy(next, s[1:])
	next[len(s)-1] = p
	return next
}

// Last returns the newest sample.
func (s Sparkline) Last() (decimal.Decimal, bool) {
	if len(s) == 0 {
		return decimal.Zero, false
	}
	return s[len(s)-1], true
}

func (s Sparkline) Clone() Sparkline {
	if s == nil {
		return nil
	}
	out := make(Sparkline, len(s))
	copy(out, s)
	return out
}
