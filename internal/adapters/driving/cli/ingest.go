package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driving"
)

var (
	ingestSource  string
	ingestOwner   string
	ingestAddress string
	ingestParcel  string
	ingestTown    string
	ingestDryRun  bool
	ingestForce   bool
	ingestMaxAge  time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one search-and-ingest pass against a source",
	Long: `Searches the source for the given owner, address, or parcel, downloads
the matching documents, and merges their parsed fields into the record.
Exactly one of --owner, --address, or --parcel must be set.`,
	RunE: runIngest,
}

var ingestAllCmd = &cobra.Command{
	Use:   "ingest-all",
	Short: "Run one search-and-ingest pass against every configured source",
	RunE:  runIngestAll,
}

func init() {
	for _, cmd := range []*cobra.Command{ingestCmd, ingestAllCmd} {
		cmd.Flags().StringVar(&ingestOwner, "owner", "", "owner name to search for")
		cmd.Flags().StringVar(&ingestAddress, "address", "", "street address to search for")
		cmd.Flags().StringVar(&ingestParcel, "parcel", "", "assessor parcel id to search for")
		cmd.Flags().StringVar(&ingestTown, "town", "", "municipality code scoping the record key")
		cmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "fetch and parse but persist nothing")
		cmd.Flags().BoolVar(&ingestForce, "force-refresh", false, "ingest even when the freshness ledger says not due")
		cmd.Flags().DurationVar(&ingestMaxAge, "max-age", 0, "override the per-category freshness window (e.g. 720h)")
	}
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source id to ingest from (required)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestAllCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestSource == "" {
		return errors.New("--source is required")
	}

	req, err := buildIngestRequest()
	if err != nil {
		return err
	}
	req.SourceID = ingestSource

	result, err := ingestService.Ingest(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printIngestResult(cmd, result)
	if result.State == domain.UnitFailed {
		return result.Err
	}
	return nil
}

func runIngestAll(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	req, err := buildIngestRequest()
	if err != nil {
		return err
	}

	results, err := ingestService.IngestAll(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	failed := 0
	for i := range results {
		printIngestResult(cmd, &results[i])
		if results[i].State == domain.UnitFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

func buildIngestRequest() (driving.IngestRequest, error) {
	var req driving.IngestRequest

	query, err := buildQuery()
	if err != nil {
		return req, err
	}
	if ingestTown == "" {
		return req, errors.New("--town is required")
	}

	req.Query = query
	req.Municipality = ingestTown
	req.DryRun = ingestDryRun
	req.ForceRefresh = ingestForce
	req.MaxAge = ingestMaxAge
	return req, nil
}

func buildQuery() (domain.SearchQuery, error) {
	var query domain.SearchQuery

	set := 0
	if ingestOwner != "" {
		query = domain.SearchQuery{Mode: domain.QueryByOwner, Owner: ingestOwner}
		set++
	}
	if ingestAddress != "" {
		query = domain.SearchQuery{Mode: domain.QueryByAddress, Address: ingestAddress}
		set++
	}
	if ingestParcel != "" {
		query = domain.SearchQuery{Mode: domain.QueryByParcel, ParcelID: ingestParcel}
		set++
	}
	if set != 1 {
		return query, errors.New("exactly one of --owner, --address, or --parcel must be set")
	}
	return query, nil
}

func printIngestResult(cmd *cobra.Command, result *driving.IngestResult) {
	switch result.State {
	case domain.UnitSkipped:
		cmd.Printf("%s: %s not due, skipped (use --force-refresh to override)\n", result.SourceID, result.ParcelKey)
	case domain.UnitFailed:
		cmd.Printf("%s: failed: %v\n", result.SourceID, result.Err)
	default:
		switch result.Outcome {
		case domain.OutcomeNotFound:
			cmd.Printf("%s: no documents for %s\n", result.SourceID, result.ParcelKey)
		default:
			cmd.Printf("%s: ingested %d document(s) into %s\n", result.SourceID, result.Documents, result.ParcelKey)
			if result.Record != nil {
				printRecordSummary(cmd, result.Record)
			}
		}
	}
}
