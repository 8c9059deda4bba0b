package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// Header is the CSV header for account listings and seed files.
var Header = []string{"account_id", "name", "kind", "color", "initial_balance", "balance", "active", "sort_order"}

const (
	numFields  = 8
	colID      = 0
	colName    = 1
	colKind    = 2
	colColor   = 3
	colInitial = 4
	colBalance = 5
	colActive  = 6
	colSort    = 7
)

// ReadAccounts reads an accounts CSV. Blank balance columns read as zero.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes an accounts CSV, header first.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colName] = acct.Name
	row[colKind] = string(acct.Kind)
	row[colColor] = acct.Color
	row[colInitial] = money.Format(acct.InitialBalance)
	row[colBalance] = money.Format(acct.Balance)
	row[colActive] = strconv.FormatBool(acct.IsActive)
	row[colSort] = strconv.Itoa(acct.SortOrder)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	kind := model.AccountKind(record[colKind])
	if !kind.Valid() {
		return model.Account{}, fmt.Errorf("unknown account kind %q", record[colKind])
	}

	acct := model.Account{
		ID:       record[colID],
		Name:     record[colName],
		Kind:     kind,
		Color:    record[colColor],
		IsActive: true,
	}

	var err error
	if record[colInitial] != "" {
		if acct.InitialBalance, err = money.Parse(record[colInitial]); err != nil {
			return model.Account{}, fmt.Errorf("parsing initial_balance %q: %w", record[colInitial], err)
		}
	}
	if record[colBalance] != "" {
		if acct.Balance, err = money.Parse(record[colBalance]); err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
	}
	if record[colActive] != "" {
		if acct.IsActive, err = strconv.ParseBool(record[colActive]); err != nil {
			return model.Account{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
		}
	}
	if record[colSort] != "" {
		if acct.SortOrder, err = strconv.Atoi(record[colSort]); err != nil {
			return model.Account{}, fmt.Errorf("parsing sort_order %q: %w", record[colSort], err)
		}
	}
	return acct, nil
}
