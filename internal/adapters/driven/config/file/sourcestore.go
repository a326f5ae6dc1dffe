// Package file provides TOML-backed configuration stores: the declarative
// source matrix and the credentials file. Both load once at startup; the
// source matrix is immutable for the life of the process.
package file

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// sourcesFile is the on-disk shape of sources.toml: one [[source]] table
// per portal.
type sourcesFile struct {
	Sources []domain.SourceConfig `toml:"source"`
}

// SourceStore is the immutable source matrix loaded from sources.toml.
type SourceStore struct {
	byID  map[string]domain.SourceConfig
	order []string
}

// NewSourceStore loads and validates the source matrix. Any malformed
// source fails the load: configuration errors surface at startup, never at
// runtime per-unit.
func NewSourceStore(path string) (*SourceStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source matrix: %w", err)
	}

	var parsed sourcesFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if len(parsed.Sources) == 0 {
		return nil, fmt.Errorf("%w: %s defines no sources", domain.ErrInvalidConfig, path)
	}

	s := &SourceStore{byID: make(map[string]domain.SourceConfig, len(parsed.Sources))}
	for i := range parsed.Sources {
		cfg := parsed.Sources[i]
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate source id %q", domain.ErrInvalidConfig, cfg.ID)
		}
		s.byID[cfg.ID] = cfg
		s.order = append(s.order, cfg.ID)
	}
	sort.Strings(s.order)
	return s, nil
}

// Get returns the configuration for a source id.
func (s *SourceStore) Get(sourceID string) (*domain.SourceConfig, error) {
	cfg, ok := s.byID[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: source %q", domain.ErrNotFound, sourceID)
	}
	return &cfg, nil
}

// List returns all configured sources sorted by id.
func (s *SourceStore) List() []domain.SourceConfig {
	out := make([]domain.SourceConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
