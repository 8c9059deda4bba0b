package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

func newAccountCommand(flags *globalFlags) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(newAccountListCommand(flags))
	accountCmd.AddCommand(newAccountCreateCommand(flags))
	accountCmd.AddCommand(newAccountActiveCommand(flags, "deactivate", false))
	accountCmd.AddCommand(newAccountActiveCommand(flags, "reactivate", true))
	return accountCmd
}

func newAccountListCommand(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.accounts.List(cmd.Context(), flags.userID, accounts.ListOptions{IncludeInactive: all})
			if err != nil {
				return err
			}
			return accounts.WriteAccounts(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")

	return cmd
}

func newAccountCreateCommand(flags *globalFlags) *cobra.Command {
	var name, kind, color, initial string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(initial)
			if err != nil {
				return fmt.Errorf("parsing --initial: %w", err)
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.accounts.Create(cmd.Context(), flags.userID, accounts.CreateParams{
				Name:           name,
				Kind:           model.AccountKind(kind),
				Color:          color,
				InitialBalance: amount,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", acct.ID, acct.Name, money.Format(acct.Balance))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&kind, "kind", string(model.AccountKindChecking), "checking, savings or credit")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&initial, "initial", "0.00", "initial balance")

	return cmd
}

func newAccountActiveCommand(flags *globalFlags, use string, active bool) *cobra.Command {
	short := "Hide an account from active lists"
	if active {
		short = "Return an account to active lists"
	}
	return &cobra.Command{
		Use:   use + " <account-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var acct *model.Account
			if active {
				acct, err = a.accounts.Reactivate(cmd.Context(), flags.userID, args[0])
			} else {
				acct, err = a.accounts.Deactivate(cmd.Context(), flags.userID, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tactive=%t\n", acct.ID, acct.IsActive)
			return nil
		},
	}
}
