package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ledgerSource string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the freshness ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show ledger entries",
	RunE:  runLedgerShow,
}

func init() {
	ledgerShowCmd.Flags().StringVar(&ledgerSource, "source", "", "filter by source id")
	ledgerCmd.AddCommand(ledgerShowCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerShow(cmd *cobra.Command, _ []string) error {
	if freshnessLedger == nil {
		return errors.New("freshness ledger not configured")
	}

	entries, err := freshnessLedger.Entries(context.Background(), ledgerSource)
	if err != nil {
		return fmt.Errorf("listing ledger entries: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("No ledger entries.")
		return nil
	}

	for _, e := range entries {
		cmd.Printf("  %-20s %-25s %-12s %-10s %s\n",
			e.SourceID, e.ParcelKey, e.Category, e.Outcome,
			e.CheckedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
