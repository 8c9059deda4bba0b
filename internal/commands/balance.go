package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/money"
)

func newBalanceCommand(flags *globalFlags) *cobra.Command {
	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Inspect and repair balances",
	}
	balanceCmd.AddCommand(newBalanceShowCommand(flags))
	balanceCmd.AddCommand(newBalanceRecomputeCommand(flags))
	return balanceCmd
}

func newBalanceShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [account-id]",
		Short: "Print one account's balance, or the total over active accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				total, err := a.reconciler.TotalBalance(cmd.Context(), flags.userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "total\t%s\n", money.Format(total))
				return nil
			}

			acct, err := a.accounts.Get(cmd.Context(), flags.userID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", acct.ID, money.Format(acct.Balance))
			return nil
		},
	}
}

func newBalanceRecomputeCommand(flags *globalFlags) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "recompute [account-id]",
		Short: "Rebuild cached balances from the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if check {
					d, err := a.reconciler.Check(cmd.Context(), flags.userID, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\tcached=%s\tcomputed=%s\tdrifted=%t\n",
						d.AccountID, money.Format(d.Cached), money.Format(d.Computed), d.Drifted())
					return nil
				}
				b, err := a.reconciler.Recompute(cmd.Context(), flags.userID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", args[0], money.Format(b))
				return nil
			}

			drifts, err := a.reconciler.RecomputeAll(cmd.Context(), flags.userID)
			if err != nil {
				return err
			}
			repaired := 0
			for _, d := range drifts {
				if d.Drifted() {
					repaired++
					fmt.Fprintf(out, "%s\t%s -> %s\n", d.AccountID, money.Format(d.Cached), money.Format(d.Computed))
				}
			}
			fmt.Fprintf(out, "recomputed %d accounts, repaired %d\n", len(drifts), repaired)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report drift for one account without writing")

	return cmd
}
