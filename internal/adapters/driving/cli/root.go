// Package cli implements the deedline command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/core/ports/driving"
	"github.com/parcelworks/deedline/internal/logger"
)

var version = "dev"

// CredentialsWriter persists portal logins entered at the terminal.
type CredentialsWriter interface {
	Set(sourceID string, creds domain.Credentials) error
}

// Services injected by main before Execute.
var (
	ingestService    driving.Ingestor
	sourceStore      driven.SourceStore
	recordStore      driven.RecordStore
	freshnessLedger  driven.FreshnessLedger
	credentialsStore CredentialsWriter
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "deedline",
	Short: "Ingest property records from public recording portals",
	Long: `Deedline searches public recording-office and assessor portals,
downloads the matching documents, and merges their parsed fields into one
normalised record per parcel.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services bundles everything the command tree needs from the core.
type Services struct {
	Ingestor    driving.Ingestor
	Sources     driven.SourceStore
	Records     driven.RecordStore
	Ledger      driven.FreshnessLedger
	Credentials CredentialsWriter
}

// SetServices wires the command tree to the application core.
func SetServices(s Services) {
	ingestService = s.Ingestor
	sourceStore = s.Sources
	recordStore = s.Records
	freshnessLedger = s.Ledger
	credentialsStore = s.Credentials
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
