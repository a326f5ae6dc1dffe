package driven

import (
	"context"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// SourceAdapter encapsulates one external portal's session and query
// protocol. Adapters are a closed set of variants selected by the adapter
// kind in SourceConfig; new sources are new configuration, not new
// subclasses.
//
// Adapters must distinguish three outcomes: zero references with a nil error
// (a valid "not found"), references with a nil error (success), and a
// non-nil error (failure, eligible for retry). They must honour the
// rate limit handed to them for every outbound request, including document
// downloads, and follow pagination exhaustively up to the configured cap.
type SourceAdapter interface {
	// SourceID returns the configured source id.
	SourceID() string

	// Search runs one query and returns all candidate references across
	// every results page.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.DocumentReference, error)

	// Fetch resolves a reference into downloaded bytes. The returned
	// artifact has no storage ref yet; persisting it is the caller's job.
	Fetch(ctx context.Context, ref domain.DocumentReference) (*domain.RawArtifact, error)

	// Close releases the adapter's session resources.
	Close() error
}

// Waiter gates outbound requests. The ingest service hands every adapter a
// per-source Waiter shared by all workers so that concurrent workers
// collectively never exceed the source's request budget.
type Waiter interface {
	// Wait blocks until a request may leave the process, or the context is
	// cancelled.
	Wait(ctx context.Context) error
}

// CredentialsProvider resolves stored portal logins for sources that
// require authentication before searching.
type CredentialsProvider interface {
	// Credentials returns the login for a source, or ErrNotFound.
	Credentials(sourceID string) (*domain.Credentials, error)
}

// AdapterFactory builds the adapter variant named by a source's kind.
type AdapterFactory interface {
	// Create returns an adapter for the source, wired to the given rate
	// limit Waiter. Returns ErrUnsupportedKind for unknown kinds.
	Create(cfg domain.SourceConfig, limit Waiter) (SourceAdapter, error)
}
