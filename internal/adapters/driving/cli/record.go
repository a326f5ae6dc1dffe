package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/normalise"
)

var (
	recordParcel string
	recordTown   string
	recordJSON   bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Inspect normalised records",
}

var recordShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the normalised record for a parcel",
	RunE:  runRecordShow,
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all parcel keys with a record",
	RunE:  runRecordList,
}

func init() {
	recordShowCmd.Flags().StringVar(&recordParcel, "parcel", "", "assessor parcel id (required)")
	recordShowCmd.Flags().StringVar(&recordTown, "town", "", "municipality code (required)")
	recordShowCmd.Flags().BoolVar(&recordJSON, "json", false, "output the record as JSON")
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordListCmd)
	rootCmd.AddCommand(recordCmd)
}

func runRecordShow(cmd *cobra.Command, _ []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}
	if recordParcel == "" || recordTown == "" {
		return errors.New("--parcel and --town are required")
	}

	key := normalise.ParcelKey(recordTown, recordParcel)
	record, err := recordStore.Get(context.Background(), key)
	if err != nil {
		return fmt.Errorf("loading record %s: %w", key, err)
	}

	if recordJSON {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Record %s (updated %s)\n", record.ParcelKey, record.UpdatedAt.Format("2006-01-02"))
	printRecordSummary(cmd, record)
	if len(record.Provenance) > 0 {
		cmd.Println("Provenance:")
		for _, p := range record.Provenance {
			cmd.Printf("  %s  %-20s %s\n", p.DocumentDate, p.InstrumentType, p.SourceID)
		}
	}
	return nil
}

func runRecordList(cmd *cobra.Command, _ []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}

	keys, err := recordStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}
	if len(keys) == 0 {
		cmd.Println("No records.")
		return nil
	}
	for _, key := range keys {
		cmd.Println(key)
	}
	return nil
}

func printRecordSummary(cmd *cobra.Command, record *domain.NormalisedRecord) {
	printCategoryFields(cmd, "Mortgage", &record.Mortgage)
	printCategoryFields(cmd, "Foreclosure", &record.Foreclosure)
	printCategoryFields(cmd, "Tax", &record.Tax)
}

func printCategoryFields(cmd *cobra.Command, label string, fields *domain.ParsedFields) {
	if fields.Empty() {
		return
	}
	cmd.Printf("%s:\n", label)
	if fields.LoanAmount != nil {
		cmd.Printf("  Loan amount:    $%.2f\n", *fields.LoanAmount)
	}
	if fields.InterestRate != nil {
		cmd.Printf("  Interest rate:  %.3f%%\n", *fields.InterestRate*100)
	}
	if fields.TermMonths != nil {
		cmd.Printf("  Term:           %d months\n", *fields.TermMonths)
	}
	if fields.Lender != "" {
		cmd.Printf("  Lender:         %s\n", fields.Lender)
	}
	if payment := fields.MonthlyPayment(); payment != nil {
		cmd.Printf("  Est. payment:   $%.2f/month\n", *payment)
	}
	if fields.JudgmentAmount != nil {
		cmd.Printf("  Judgment:       $%.2f\n", *fields.JudgmentAmount)
	}
	if fields.AuctionDate != "" {
		cmd.Printf("  Auction date:   %s\n", fields.AuctionDate)
	}
	if len(fields.Parties) > 0 {
		cmd.Printf("  Parties:        %v\n", fields.Parties)
	}
	if fields.AssessedLand != nil {
		cmd.Printf("  Assessed land:  $%.2f\n", *fields.AssessedLand)
	}
	if fields.AssessedBuilding != nil {
		cmd.Printf("  Assessed bldg:  $%.2f\n", *fields.AssessedBuilding)
	}
	if fields.AssessedTotal != nil {
		cmd.Printf("  Assessed total: $%.2f\n", *fields.AssessedTotal)
	}
	if fields.TaxAmount != nil {
		cmd.Printf("  Annual tax:     $%.2f\n", *fields.TaxAmount)
	}
	if fields.Confidence != "" {
		cmd.Printf("  Confidence:     %s\n", fields.Confidence)
	}
}
