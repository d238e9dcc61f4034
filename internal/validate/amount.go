// Package validate holds the pure pre-flight checks applied to user
// input before any network call is made.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Withdrawal bounds, inclusive on both ends.
var (
	MinAmount = decimal.NewFromInt(1000)
	MaxAmount = decimal.NewFromInt(2000000)
)

var (
	ErrNotANumber   = errors.New("amount is not a number")
	ErrBelowMinimum = errors.New("amount below minimum")
	ErrAboveMaximum = errors.New("amount above maximum")
)

// Amount parses a raw withdrawal amount and checks it against the
// allowed range. The returned error wraps exactly one of the sentinel
// reasons above.
func Amount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	amt, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotANumber)
	}
	if amt.LessThan(MinAmount) {
		return decimal.Zero, fmt.Errorf("%s: %w", amt, ErrBelowMinimum)
	}
	if amt.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%s: %w", amt, ErrAboveMaximum)
	}
	return amt, nil
}
