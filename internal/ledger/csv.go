package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// Header is the CSV header for exported ledger entries.
const Header = "id,date,account_id,description,type,amount,signed_amount,category_id,transfer_id,parent_id,installment,recurring_type,frequency,interval,end_date"

const (
	numFields      = 15
	colID          = 0
	colDate        = 1
	colAccountID   = 2
	colDesc        = 3
	colType        = 4
	colAmount      = 5
	colSigned      = 6
	colCategory    = 7
	colTransferID  = 8
	colParentID    = 9
	colInstallment = 10
	colRecurType   = 11
	colFrequency   = 12
	colInterval    = 13
	colEndDate     = 14
)

// WriteEntries writes entries as CSV, header first.
func WriteEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEntries reads entries written by WriteEntries.
func ReadEntries(r io.Reader) ([]model.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.LedgerEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalEntry converts an entry to a CSV row.
func MarshalEntry(e model.LedgerEntry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colDate] = e.Date.Format(time.DateOnly)
	row[colAccountID] = e.AccountID
	row[colDesc] = e.Description
	row[colType] = string(e.Type)
	row[colAmount] = money.Format(e.Amount)
	row[colSigned] = money.Format(e.SignedAmount())
	row[colCategory] = e.CategoryID
	row[colTransferID] = e.TransferID
	row[colParentID] = e.ParentID

	if e.InstallmentTotal > 0 {
		row[colInstallment] = fmt.Sprintf("%d/%d", e.InstallmentCurrent, e.InstallmentTotal)
	}
	if e.IsRecurring {
		row[colRecurType] = string(e.RecurringType)
		row[colFrequency] = string(e.RecurringFrequency)
		row[colInterval] = strconv.Itoa(e.RecurringInterval)
	}
	if !e.RecurringEndDate.IsZero() {
		row[colEndDate] = e.RecurringEndDate.Format(time.DateOnly)
	}
	return row
}

// UnmarshalEntry converts a CSV row back to an entry. The signed amount
// column is derived and ignored.
func UnmarshalEntry(record []string) (model.LedgerEntry, error) {
	if len(record) != numFields {
		return model.LedgerEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(time.DateOnly, record[colDate])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	typ := model.TransactionType(record[colType])
	if !typ.Valid() {
		return model.LedgerEntry{}, fmt.Errorf("unknown transaction type %q", record[colType])
	}

	e := model.LedgerEntry{
		ID:            record[colID],
		Date:          date,
		AccountID:     record[colAccountID],
		Description:   record[colDesc],
		Type:          typ,
		Amount:        amount,
		CategoryID:    record[colCategory],
		TransferID:    record[colTransferID],
		ParentID:      record[colParentID],
		RecurringType: model.RecurringNone,
	}

	if v := record[colInstallment]; v != "" {
		if _, err := fmt.Sscanf(v, "%d/%d", &e.InstallmentCurrent, &e.InstallmentTotal); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing installment %q: %w", v, err)
		}
	}
	if v := record[colRecurType]; v != "" {
		e.IsRecurring = true
		e.RecurringType = model.RecurringType(v)
		e.RecurringFrequency = model.Frequency(record[colFrequency])
		if e.RecurringInterval, err = strconv.Atoi(record[colInterval]); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing interval %q: %w", record[colInterval], err)
		}
	}
	if v := record[colEndDate]; v != "" {
		if e.RecurringEndDate, err = time.Parse(time.DateOnly, v); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing end date %q: %w", v, err)
		}
	}
	return e, nil
}
