package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

func newEntryCommand(flags *globalFlags) *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Work with ledger entries",
	}
	entryCmd.AddCommand(newEntryAddCommand(flags))
	entryCmd.AddCommand(newEntryExportCommand(flags))
	entryCmd.AddCommand(newEntryImportCommand(flags))
	return entryCmd
}

func newEntryExportCommand(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <account-id>",
		Short: "Export an account's ledger as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.ledger.ListEntries(cmd.Context(), flags.userID, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return ledger.WriteEntries(w, entries)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func newEntryAddCommand(flags *globalFlags) *cobra.Command {
	var accountID, amount, date, description, txType, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a one-off expense or income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := money.ParsePositive(amount)
			if err != nil {
				return fmt.Errorf("parsing --amount: %w", err)
			}
			day := time.Now()
			if date != "" {
				if day, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("parsing --date: %w", err)
				}
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ledger.RecordSimpleEntry(cmd.Context(), flags.userID, ledger.EntryParams{
				Description: description,
				Amount:      value,
				Date:        day,
				CategoryID:  category,
				AccountID:   accountID,
				Type:        model.TransactionType(txType),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.ID, e.Type, money.Format(e.SignedAmount()))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount (required)")
	cmd.Flags().StringVar(&description, "description", "", "description (required)")
	cmd.Flags().StringVar(&txType, "type", "", "debit or credit (required)")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	for _, name := range []string{"account", "amount", "description", "type"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newEntryImportCommand(flags *globalFlags) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import entries from an exported CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := ledger.ReadEntries(f)
			if err != nil {
				return err
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ledger.ImportEntries(cmd.Context(), flags.userID, accountID, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, skipped %d transfer entries\n", res.Imported, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "record every row on this account instead of the one in the file")

	return cmd
}
