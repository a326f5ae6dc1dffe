package driven

import (
	"context"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// RecordStore persists normalised records keyed by canonical parcel key.
type RecordStore interface {
	// Get returns the record for a parcel key, or ErrNotFound.
	Get(ctx context.Context, parcelKey string) (*domain.NormalisedRecord, error)

	// Save upserts the record. Callers serialise writes per parcel key;
	// the store persists whatever it is handed.
	Save(ctx context.Context, record *domain.NormalisedRecord) error

	// List returns all parcel keys with a record, sorted.
	List(ctx context.Context) ([]string, error)
}

// SourceStore provides the immutable source matrix loaded at startup.
type SourceStore interface {
	// Get returns the configuration for a source id, or ErrNotFound.
	Get(sourceID string) (*domain.SourceConfig, error)

	// List returns all configured sources.
	List() []domain.SourceConfig
}
