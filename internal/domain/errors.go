package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError reports malformed external input. The core never produces
// it; boundary code (websocket commands, CLI flags) does, before touching state.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ValidatePrice requires a strictly positive price.
func ValidatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return &ValidationError{Field: "price", Value: p.String(), Reason: "must be positive"}
	}
	return nil
}

// ValidateAmount requires a non-negative holding amount.
func ValidateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return &ValidationError{Field: "amount", Value: a.String(), Reason: "must not be negative"}
	}
	return nil
}

// ValidateAssetID requires a non-blank identifier.
func ValidateAssetID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Value: id, Reason: "must not be empty"}
	}
	return nil
}
