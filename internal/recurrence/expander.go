// Package recurrence expands recurring and installment requests into
// concrete ledger entries. It never touches balances.
package recurrence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tally-dev/tally/internal/apperr"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// DefaultMaxOccurrences caps how many entries one request may generate.
const DefaultMaxOccurrences = 360

// Rule describes how a base entry repeats. The zero Rule means a one-off.
type Rule struct {
	Type             model.RecurringType
	Frequency        model.Frequency
	Interval         int // 0 means 1
	InstallmentTotal int
	EndDate          time.Time // zero = open-ended, bounded by the cap
}

// IsRecurring reports whether r generates more than the base entry.
func (r Rule) IsRecurring() bool {
	return r.Type == model.RecurringInstallment || r.Type == model.RecurringAdvanced
}

// stepFunc returns the n-th occurrence after anchor, stepping by interval units.
type stepFunc func(anchor time.Time, n, interval int) time.Time

var steps = map[model.Frequency]stepFunc{
	model.Daily: func(anchor time.Time, n, interval int) time.Time {
		return anchor.AddDate(0, 0, n*interval)
	},
	model.Weekly: func(anchor time.Time, n, interval int) time.Time {
		return anchor.AddDate(0, 0, 7*n*interval)
	},
	model.Monthly: func(anchor time.Time, n, interval int) time.Time {
		return addMonthsClamped(anchor, n*interval)
	},
	model.Yearly: func(anchor time.Time, n, interval int) time.Time {
		return addMonthsClamped(anchor, 12*n*interval)
	},
}

// addMonthsClamped moves t forward by months, pinning the day to the last
// day of the target month when the anchor day does not exist there.
// Jan 31 + 1 month is Feb 29 in a leap year, + 2 months is Mar 31.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Expander turns one request into its series of entries.
type Expander struct {
	maxOccurrences       int
	installmentFrequency model.Frequency
	log                  *slog.Logger
}

// NewExpander creates an Expander. A non-positive maxOccurrences selects
// DefaultMaxOccurrences and an invalid installmentFrequency selects monthly.
func NewExpander(maxOccurrences int, installmentFrequency model.Frequency, log *slog.Logger) *Expander {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	if !installmentFrequency.Valid() {
		installmentFrequency = model.Monthly
	}
	if log == nil {
		log = slog.Default()
	}
	return &Expander{maxOccurrences: maxOccurrences, installmentFrequency: installmentFrequency, log: log}
}

// Expand generates the entries for base under rule. A one-off rule returns
// base alone. Generated entries share a series id: the first entry's ID,
// carried by every entry (the first included) as ParentID.
func (x *Expander) Expand(base model.LedgerEntry, rule Rule) ([]model.LedgerEntry, error) {
	const op = "recurrence.Expand"

	interval := rule.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		return nil, apperr.Validation(op, "interval must be at least 1, got %d", rule.Interval)
	}
	if rule.IsRecurring() && !rule.EndDate.IsZero() && rule.EndDate.Before(base.Date) {
		return nil, apperr.Validation(op, "end date %s precedes start date %s",
			rule.EndDate.Format(time.DateOnly), base.Date.Format(time.DateOnly))
	}

	switch rule.Type {
	case "", model.RecurringNone:
		base.RecurringType = model.RecurringNone
		return []model.LedgerEntry{base}, nil
	case model.RecurringInstallment:
		return x.installments(base, rule.InstallmentTotal, interval)
	case model.RecurringAdvanced:
		return x.advanced(base, rule, interval)
	default:
		return nil, apperr.Validation(op, "unknown recurring type %q", rule.Type)
	}
}

func (x *Expander) installments(base model.LedgerEntry, total, interval int) ([]model.LedgerEntry, error) {
	const op = "recurrence.Expand"
	if total < 1 {
		return nil, apperr.Validation(op, "installment total must be at least 1, got %d", total)
	}
	if total > x.maxOccurrences {
		return nil, apperr.Validation(op, "installment total %d exceeds the limit of %d", total, x.maxOccurrences)
	}

	parts, err := money.Split(base.Amount, total)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, err, "cannot split %s", base.Amount)
	}
	if !parts[0].IsPositive() {
		return nil, apperr.Validation(op, "%s is too small to split into %d installments", money.Format(base.Amount), total)
	}

	step := steps[x.installmentFrequency]
	seriesID := id.New()
	entries := make([]model.LedgerEntry, total)
	for i := range total {
		e := base
		e.ID = ""
		e.Amount = parts[i]
		e.Date = step(base.Date, i, interval)
		e.Description = fmt.Sprintf("%s (%d/%d)", base.Description, i+1, total)
		e.IsRecurring = true
		e.RecurringType = model.RecurringInstallment
		e.RecurringFrequency = x.installmentFrequency
		e.RecurringInterval = interval
		e.InstallmentTotal = total
		e.InstallmentCurrent = i + 1
		e.RecurringEndDate = time.Time{}
		e.ParentID = seriesID
		entries[i] = e
	}
	entries[0].ID = seriesID
	return entries, nil
}

func (x *Expander) advanced(base model.LedgerEntry, rule Rule, interval int) ([]model.LedgerEntry, error) {
	const op = "recurrence.Expand"
	step, ok := steps[rule.Frequency]
	if !ok {
		return nil, apperr.Validation(op, "unknown frequency %q", rule.Frequency)
	}
	seriesID := id.New()
	var entries []model.LedgerEntry
	for n := 0; ; n++ {
		date := step(base.Date, n, interval)
		if !rule.EndDate.IsZero() && date.After(rule.EndDate) {
			break
		}
		if len(entries) == x.maxOccurrences {
			x.log.Warn("recurrence truncated at occurrence cap",
				"description", base.Description, "cap", x.maxOccurrences,
				"open_ended", rule.EndDate.IsZero())
			break
		}
		e := base
		e.ID = ""
		e.Date = date
		e.IsRecurring = true
		e.RecurringType = model.RecurringAdvanced
		e.RecurringFrequency = rule.Frequency
		e.RecurringInterval = interval
		e.InstallmentTotal = 0
		e.InstallmentCurrent = 0
		e.RecurringEndDate = rule.EndDate
		e.ParentID = seriesID
		entries = append(entries, e)
	}
	entries[0].ID = seriesID
	return entries, nil
}
