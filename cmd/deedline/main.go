// Command deedline ingests mortgage, foreclosure, and tax data from public
// recording-office and assessor portals into normalised per-parcel records.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parcelworks/deedline/internal/adapters/driven/artifacts/fs"
	"github.com/parcelworks/deedline/internal/adapters/driven/artifacts/s3"
	configfile "github.com/parcelworks/deedline/internal/adapters/driven/config/file"
	"github.com/parcelworks/deedline/internal/adapters/driven/storage/sqlite"
	"github.com/parcelworks/deedline/internal/adapters/driving/cli"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/core/services"
	"github.com/parcelworks/deedline/internal/parsers"
	"github.com/parcelworks/deedline/internal/parsers/extract"
	"github.com/parcelworks/deedline/internal/parsers/foreclosure"
	"github.com/parcelworks/deedline/internal/parsers/mortgage"
	"github.com/parcelworks/deedline/internal/parsers/tax"
	"github.com/parcelworks/deedline/internal/sources"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "deedline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	home, err := homeDir()
	if err != nil {
		return err
	}

	sourceStore, err := configfile.NewSourceStore(filepath.Join(home, "sources.toml"))
	if err != nil {
		return err
	}
	credentials, err := configfile.NewCredentialsStore(filepath.Join(home, "credentials.toml"))
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := newArtifactStore(home)
	if err != nil {
		return err
	}

	registry := parsers.NewRegistry(extract.New(extract.Options{}))
	registry.Register(mortgage.New())
	registry.Register(foreclosure.New())
	registry.Register(tax.New())

	ingestor := services.NewIngestService(
		sourceStore,
		sources.NewFactory(credentials),
		services.NewLimiterRegistry(),
		artifacts,
		registry,
		store.FreshnessLedger(),
		store.RecordStore(),
		services.IngestOptions{},
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingestor:    ingestor,
		Sources:     sourceStore,
		Records:     store.RecordStore(),
		Ledger:      store.FreshnessLedger(),
		Credentials: credentials,
	})
	return cli.Execute()
}

// newArtifactStore picks the artifact backend: S3 when DEEDLINE_S3_BUCKET is
// set, the local filesystem otherwise.
func newArtifactStore(home string) (driven.ArtifactStore, error) {
	if bucket := os.Getenv("DEEDLINE_S3_BUCKET"); bucket != "" {
		return s3.NewStore(context.Background(), bucket, os.Getenv("DEEDLINE_S3_PREFIX"))
	}
	return fs.NewStore(filepath.Join(home, "artifacts"))
}

// homeDir resolves the deedline configuration directory, creating it when
// absent. DEEDLINE_HOME overrides the default ~/.deedline.
func homeDir() (string, error) {
	dir := os.Getenv("DEEDLINE_HOME")
	if dir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(userHome, ".deedline")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}
