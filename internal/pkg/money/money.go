package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotPositive is returned for zero or negative amounts
var ErrNotPositive = errors.New("amount must be positive")

// Places is the precision of every stored amount
const Places = 2

// Parse reads a user-typed amount, accepting thousands separators
func Parse(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParsePositive reads an amount and rejects anything <= 0
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}
	return d, nil
}

// Round rounds half away from zero to cents
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders an amount with two decimals
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
