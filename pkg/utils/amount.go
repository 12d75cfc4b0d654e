package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount and rounds it to cents.
func ParseAmount(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: negative", raw)
	}
	return d.Round(2).InexactFloat64(), nil
}

// RoundAmount rounds a float amount to cents.
func RoundAmount(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ParseAmountValue accepts an amount decoded from JSON, either as a decimal
// string or as a number.
func ParseAmountValue(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case string:
		return ParseAmount(v)
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid amount %v: negative", v)
		}
		return RoundAmount(v), nil
	case nil:
		return 0, fmt.Errorf("amount is required")
	}
	return 0, fmt.Errorf("invalid amount type %T", raw)
}
