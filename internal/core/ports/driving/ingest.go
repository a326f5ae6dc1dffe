package driving

import (
	"context"
	"time"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// IngestRequest describes one requested ingestion.
type IngestRequest struct {
	// SourceID selects the source. Empty with FanOut means all sources.
	SourceID string

	// Query is the search to run.
	Query domain.SearchQuery

	// Municipality scopes the canonical record key. Parcel numbering and
	// street names are only unique within one municipality.
	Municipality string

	// DryRun fetches and parses but persists nothing; the result carries
	// the record update that would have been written.
	DryRun bool

	// ForceRefresh ingests even when the freshness ledger says not due.
	ForceRefresh bool

	// MaxAge overrides the per-category default freshness windows when
	// non-zero.
	MaxAge time.Duration
}

// IngestResult reports what one unit of work did.
type IngestResult struct {
	// SourceID is the source the unit ran against.
	SourceID string

	// ParcelKey is the canonical key the results merged into.
	ParcelKey string

	// State is the unit's terminal state.
	State domain.UnitState

	// Outcome classifies the attempt for the freshness ledger.
	Outcome domain.Outcome

	// Documents counts references ingested.
	Documents int

	// Record is the updated (or, in dry runs, would-be) normalised record.
	// Nil for skipped units and not-found outcomes.
	Record *domain.NormalisedRecord

	// Err is the terminal error for failed units.
	Err error
}

// Ingestor is the pipeline's invocation surface.
type Ingestor interface {
	// Ingest runs one unit of work synchronously.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestAll fans one request out across all configured sources through
	// the worker pool and returns per-source results.
	IngestAll(ctx context.Context, req IngestRequest) ([]IngestResult, error)
}
