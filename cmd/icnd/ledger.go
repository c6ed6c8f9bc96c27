package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ledgerCmd groups mana ledger operations, mirroring cmd/cli's
// account_and_balance_operations.go accountCmd: one parent command, one
// RunE-backed leaf per operation, flags validated by cobra.Args.
func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ledger", Short: "inspect and mutate mana balances"}

	balance := &cobra.Command{
		Use:   "balance <did>",
		Short: "show an account's mana balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := node.GetMana(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bal)
			return nil
		},
	}

	credit := &cobra.Command{
		Use:   "credit <did> <amount>",
		Short: "credit mana to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseUint64(args[1])
			if err != nil {
				return err
			}
			if err := node.CreditMana(cmd.Context(), args[0], amt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credited")
			return nil
		},
	}

	spend := &cobra.Command{
		Use:   "spend <did> <amount>",
		Short: "spend (debit) mana from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseUint64(args[1])
			if err != nil {
				return err
			}
			if err := node.SpendMana(cmd.Context(), args[0], amt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "spent")
			return nil
		},
	}

	cmd.AddCommand(balance, credit, spend)
	return cmd
}
