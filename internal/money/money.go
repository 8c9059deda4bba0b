// Package money parses, formats and divides two-decimal monetary amounts.
//
// Amounts are shopspring decimals throughout. Strings crossing the API and
// CSV boundaries always carry exactly two fraction digits.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits every amount carries.
const Places = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than 2 decimal places")
	ErrNotPositive   = errors.New("amount must be greater than zero")
)

var hundred = decimal.NewFromInt(100)

// Parse reads a signed decimal string such as "-12.30". A comma decimal
// separator is accepted. More than two fraction digits is an error, never
// a silent rounding.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !IsCents(d) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	return d, nil
}

// ParsePositive is Parse restricted to amounts greater than zero.
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

// Format renders d with exactly two fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// IsCents reports whether d has no more than two fraction digits.
func IsCents(d decimal.Decimal) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Truncate(0))
}

// Split divides total into n parts of whole cents. Every part but the last
// is total/n truncated to the cent; the last absorbs the remainder, so the
// parts always sum to exactly total.
func Split(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n < 1 {
		return nil, fmt.Errorf("cannot split into %d parts", n)
	}
	if !IsCents(total) {
		return nil, ErrTooPrecise
	}
	base := total.Div(decimal.NewFromInt(int64(n))).Truncate(Places)
	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = base
		allocated = allocated.Add(base)
	}
	parts[n-1] = total.Sub(allocated)
	return parts, nil
}

// Sum adds amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
