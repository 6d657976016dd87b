package watch

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	trillion = decimal.New(1, 12)
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)

	// sub-dollar prices keep four digits
	centFormatter = money.NewFormatter(4, ".", ",", "$", "$1")
)

// FormatUSD renders d as dollars: four fraction digits for non-zero values
// below $1, two otherwise.
func FormatUSD(d decimal.Decimal) string {
	if !d.IsZero() && d.Abs().LessThan(decimal.NewFromInt(1)) {
		return centFormatter.Format(d.Shift(4).Round(0).IntPart())
	}
	cur := money.GetCurrency(money.USD)
	return cur.Formatter().Format(d.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// FormatLarge abbreviates market caps and volumes with T, B or M.
func FormatLarge(d decimal.Decimal) string {
	switch {
	case d.GreaterThanOrEqual(trillion):
		return "$" + d.Div(trillion).StringFixed(2) + "T"
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	}
	return FormatUSD(d)
}

// FormatChange renders a percentage-point change with an explicit sign.
func FormatChange(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}
