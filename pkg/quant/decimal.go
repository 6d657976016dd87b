package quant

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the number of fractional digits kept on simulated prices.
const PriceDecimals = 2

// MinPrice is the smallest representable positive price (one tick).
var MinPrice = decimal.New(1, -PriceDecimals)

// RoundPrice rounds half away from zero to PriceDecimals places.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceDecimals)
}

// Uniform returns a value drawn uniformly from [-amplitude, +amplitude).
// r must not be shared between goroutines without external locking.
func Uniform(r *rand.Rand, amplitude decimal.Decimal) decimal.Decimal {
	unit := decimal.NewFromFloat(r.Float64()*2 - 1)
	return unit.Mul(amplitude)
}

// Scale multiplies d by (1 + f).
func Scale(d, f decimal.Decimal) decimal.Decimal {
	return d.Mul(decimal.NewFromInt(1).Add(f))
}

// ParseDecimal parses an external numeric string. Empty and "null" are rejected
// instead of being read as zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return decimal.Zero, fmt.Errorf("empty numeric value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	return d, nil
}
