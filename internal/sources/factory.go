package sources

import (
	"fmt"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/sources/directquery"
	"github.com/parcelworks/deedline/internal/sources/statefulform"
)

// Ensure Factory implements the interface.
var _ driven.AdapterFactory = (*Factory)(nil)

// Factory builds the adapter variant named by a source's kind.
type Factory struct {
	creds driven.CredentialsProvider
}

// NewFactory creates a factory. The credentials provider may be nil when no
// configured source has a login path.
func NewFactory(creds driven.CredentialsProvider) *Factory {
	return &Factory{creds: creds}
}

// Create returns an adapter for the source, wired to the given rate limit
// Waiter.
func (f *Factory) Create(cfg domain.SourceConfig, limit driven.Waiter) (driven.SourceAdapter, error) {
	switch cfg.Kind {
	case domain.AdapterStatefulForm:
		return statefulform.New(cfg, limit, f.creds)
	case domain.AdapterDirectQuery:
		return directquery.New(cfg, limit), nil
	default:
		return nil, fmt.Errorf("%w: %q for source %s", domain.ErrUnsupportedKind, cfg.Kind, cfg.ID)
	}
}
