package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-7.10", "-7.1", true},
		{"0", "0", true},
		{"1.005", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if !tt.ok {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.True(t, got.Equal(dec(tt.want)), "input %q: got %s", tt.in, got)
	}
}

func TestParsePositive(t *testing.T) {
	_, err := ParsePositive("0")
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = ParsePositive("-1.00")
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = ParsePositive("1.001")
	assert.ErrorIs(t, err, ErrTooPrecise)

	got, err := ParsePositive("0.01")
	require.NoError(t, err)
	assert.Equal(t, "0.01", Format(got))
}

func TestFormat(t *testing.T) {
	tests := []struct{ in, want string }{
		{"4", "4.00"},
		{"127.5", "127.50"},
		{"-3500", "-3500.00"},
		{"0.1", "0.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(dec(tt.in)))
	}
}

// The last part takes the remainder cents: 33.33, 33.33, 33.34.
func TestSplitLastPartAbsorbsRemainder(t *testing.T) {
	parts, err := Split(dec("100.00"), 3)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "33.33", Format(parts[0]))
	assert.Equal(t, "33.33", Format(parts[1]))
	assert.Equal(t, "33.34", Format(parts[2]))
	assert.True(t, Sum(parts...).Equal(dec("100.00")))
}

func TestSplitVariousTotals(t *testing.T) {
	tests := []struct {
		total string
		n     int
	}{
		{"0.01", 3},
		{"10.00", 7},
		{"999.99", 12},
		{"1.00", 1},
		{"250.00", 4},
	}
	for _, tt := range tests {
		parts, err := Split(dec(tt.total), tt.n)
		require.NoError(t, err)
		require.Len(t, parts, tt.n)
		assert.True(t, Sum(parts...).Equal(dec(tt.total)), "total %s / %d", tt.total, tt.n)
		for _, p := range parts {
			assert.True(t, IsCents(p), "part %s is not whole cents", p)
		}
	}
}

func TestSplitErrors(t *testing.T) {
	_, err := Split(dec("10.00"), 0)
	assert.Error(t, err)
	_, err = Split(dec("10.001"), 2)
	assert.ErrorIs(t, err, ErrTooPrecise)
}

func TestDecimalPrecision(t *testing.T) {
	// 0.1 + 0.2 is the classic float64 failure.
	assert.Equal(t, "0.30", Format(dec("0.1").Add(dec("0.2"))))
}
