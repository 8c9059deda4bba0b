package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/logging"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newExpander() *Expander {
	return NewExpander(0, "", logging.Discard())
}

func base(amount string, date time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		UserID:      "u1",
		Description: "Laptop",
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		AccountID:   "acct",
		Type:        model.TypeDebit,
	}
}

func TestOneOff(t *testing.T) {
	got, err := newExpander().Expand(base("10.00", day(2024, 1, 1)), Rule{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsRecurring)
	assert.Equal(t, model.RecurringNone, got[0].RecurringType)
}

func TestInstallmentsSumExactly(t *testing.T) {
	got, err := newExpander().Expand(base("100.00", day(2024, 1, 31)), Rule{
		Type:             model.RecurringInstallment,
		InstallmentTotal: 3,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	var amounts []decimal.Decimal
	for i, e := range got {
		amounts = append(amounts, e.Amount)
		assert.Equal(t, i+1, e.InstallmentCurrent)
		assert.Equal(t, 3, e.InstallmentTotal)
		assert.Equal(t, got[0].ID, e.ParentID)
		assert.Equal(t, model.Monthly, e.RecurringFrequency)
		assert.True(t, e.IsRecurring)
	}
	assert.True(t, money.Sum(amounts...).Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "33.33", money.Format(got[0].Amount))
	assert.Equal(t, "33.34", money.Format(got[2].Amount))

	assert.Equal(t, "Laptop (1/3)", got[0].Description)
	assert.Equal(t, day(2024, 2, 29), got[1].Date)
	assert.Equal(t, day(2024, 3, 31), got[2].Date)
	assert.NotEmpty(t, got[0].ID)
	assert.Empty(t, got[1].ID)
}

func TestInstallmentsNeverLoseACent(t *testing.T) {
	x := newExpander()
	for _, amount := range []string{"0.01", "0.05", "1.00", "99.99", "1234.57"} {
		for n := 1; n <= 12; n++ {
			got, err := x.Expand(base(amount, day(2024, 1, 1)), Rule{Type: model.RecurringInstallment, InstallmentTotal: n})
			cents := decimal.RequireFromString(amount).Shift(2).IntPart()
			if cents < int64(n) {
				assert.ErrorIs(t, err, apperr.ErrValidation, "%s / %d", amount, n)
				continue
			}
			require.NoError(t, err)
			var sum decimal.Decimal
			for _, e := range got {
				assert.True(t, money.IsCents(e.Amount))
				sum = sum.Add(e.Amount)
			}
			assert.True(t, sum.Equal(decimal.RequireFromString(amount)), "%s / %d summed to %s", amount, n, sum)
		}
	}
}

func TestInstallmentValidation(t *testing.T) {
	x := newExpander()
	_, err := x.Expand(base("10.00", day(2024, 1, 1)), Rule{Type: model.RecurringInstallment})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = x.Expand(base("10.00", day(2024, 1, 1)), Rule{Type: model.RecurringInstallment, InstallmentTotal: 400})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = x.Expand(base("100.00", day(2024, 3, 1)), Rule{
		Type: model.RecurringInstallment, InstallmentTotal: 3, EndDate: day(2024, 1, 1),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation, "end date before the first installment")
}

func TestInstallmentFrequencyOverride(t *testing.T) {
	x := NewExpander(0, model.Weekly, logging.Discard())
	got, err := x.Expand(base("20.00", day(2024, 1, 1)), Rule{Type: model.RecurringInstallment, InstallmentTotal: 2})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 8), got[1].Date)
}

func TestAdvancedMonthEndClamp(t *testing.T) {
	got, err := newExpander().Expand(base("50.00", day(2024, 1, 31)), Rule{
		Type:      model.RecurringAdvanced,
		Frequency: model.Monthly,
		Interval:  1,
		EndDate:   day(2024, 4, 30),
	})
	require.NoError(t, err)
	require.Len(t, got, 4)

	want := []time.Time{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31), day(2024, 4, 30)}
	for i, e := range got {
		assert.Equal(t, want[i], e.Date, "occurrence %d", i)
		assert.Equal(t, "50.00", money.Format(e.Amount))
		assert.Equal(t, got[0].ID, e.ParentID)
		assert.Equal(t, day(2024, 4, 30), e.RecurringEndDate)
	}
}

func TestAdvancedFrequencies(t *testing.T) {
	tests := []struct {
		name     string
		freq     model.Frequency
		interval int
		start    time.Time
		end      time.Time
		want     []time.Time
	}{
		{"daily", model.Daily, 1, day(2024, 2, 27), day(2024, 3, 1),
			[]time.Time{day(2024, 2, 27), day(2024, 2, 28), day(2024, 2, 29), day(2024, 3, 1)}},
		{"every other week", model.Weekly, 2, day(2024, 1, 1), day(2024, 2, 1),
			[]time.Time{day(2024, 1, 1), day(2024, 1, 15), day(2024, 1, 29)}},
		{"quarterly", model.Monthly, 3, day(2024, 1, 15), day(2024, 12, 31),
			[]time.Time{day(2024, 1, 15), day(2024, 4, 15), day(2024, 7, 15), day(2024, 10, 15)}},
		{"leap day yearly", model.Yearly, 1, day(2024, 2, 29), day(2028, 3, 1),
			[]time.Time{day(2024, 2, 29), day(2025, 2, 28), day(2026, 2, 28), day(2027, 2, 28), day(2028, 2, 29)}},
		{"end equals start", model.Monthly, 1, day(2024, 5, 5), day(2024, 5, 5),
			[]time.Time{day(2024, 5, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newExpander().Expand(base("1.00", tt.start), Rule{
				Type: model.RecurringAdvanced, Frequency: tt.freq, Interval: tt.interval, EndDate: tt.end,
			})
			require.NoError(t, err)
			var dates []time.Time
			for _, e := range got {
				dates = append(dates, e.Date)
			}
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestAdvancedValidation(t *testing.T) {
	x := newExpander()
	start := day(2024, 3, 1)

	_, err := x.Expand(base("1.00", start), Rule{Type: model.RecurringAdvanced, Frequency: model.Monthly, EndDate: day(2024, 2, 1)})
	assert.ErrorIs(t, err, apperr.ErrValidation, "end before start")

	_, err = x.Expand(base("1.00", start), Rule{Type: model.RecurringAdvanced, Frequency: model.Monthly, Interval: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation, "negative interval")

	_, err = x.Expand(base("1.00", start), Rule{Type: model.RecurringAdvanced, Frequency: "hourly"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "unknown frequency")

	_, err = x.Expand(base("1.00", start), Rule{Type: "sometimes"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "unknown type")
}

func TestAdvancedOpenEndedIsCapped(t *testing.T) {
	got, err := newExpander().Expand(base("1.00", day(2024, 1, 1)), Rule{Type: model.RecurringAdvanced, Frequency: model.Daily})
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxOccurrences)

	small := NewExpander(5, model.Monthly, logging.Discard())
	got, err = small.Expand(base("1.00", day(2024, 1, 1)), Rule{
		Type: model.RecurringAdvanced, Frequency: model.Daily, EndDate: day(2025, 1, 1),
	})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, day(2023, 2, 28), addMonthsClamped(day(2023, 1, 31), 1))
	assert.Equal(t, day(2024, 12, 31), addMonthsClamped(day(2024, 10, 31), 2))
	assert.Equal(t, day(2025, 1, 30), addMonthsClamped(day(2024, 11, 30), 2))
}
