package driven

import (
	"context"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// ArtifactStore persists raw downloaded documents. The pipeline is
// storage-agnostic: local filesystem and object storage implement the same
// interface.
//
// Writes are idempotent by identity: storing the same source+reference bytes
// twice overwrites deterministically at the same location rather than
// silently duplicating.
type ArtifactStore interface {
	// Put persists the artifact's bytes and returns it with ID and
	// StorageRef populated.
	Put(ctx context.Context, artifact *domain.RawArtifact) (*domain.RawArtifact, error)

	// Get retrieves stored bytes by artifact id.
	Get(ctx context.Context, artifactID string) ([]byte, error)
}
