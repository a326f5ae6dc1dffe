package driven

import (
	"context"
	"time"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// FreshnessLedger tracks the last successful ingestion per
// (source, parcel, category) and decides whether a re-fetch is due.
type FreshnessLedger interface {
	// IsDue reports whether the triple should be fetched given the maximum
	// age. A triple with no entry is always due.
	IsDue(ctx context.Context, sourceID, parcelKey string, category domain.Category, maxAge time.Duration) (bool, error)

	// RecordOutcome upserts the entry for the triple. Entries are never
	// deleted.
	RecordOutcome(ctx context.Context, entry domain.FreshnessEntry) error

	// Entries lists ledger entries, optionally filtered by source id
	// (empty matches all).
	Entries(ctx context.Context, sourceID string) ([]domain.FreshnessEntry, error)
}
