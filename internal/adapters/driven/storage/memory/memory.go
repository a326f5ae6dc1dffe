// Package memory provides in-memory implementations of the storage ports.
// They back unit tests and dry runs; nothing here survives the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// ==================== Freshness Ledger ====================

// Ledger is an in-memory FreshnessLedger.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]domain.FreshnessEntry
}

var _ driven.FreshnessLedger = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]domain.FreshnessEntry)}
}

func ledgerKey(sourceID, parcelKey string, category domain.Category) string {
	return sourceID + "|" + parcelKey + "|" + string(category)
}

// IsDue reports whether the triple should be fetched given the maximum age.
func (l *Ledger) IsDue(_ context.Context, sourceID, parcelKey string, category domain.Category, maxAge time.Duration) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[ledgerKey(sourceID, parcelKey, category)]
	if !ok {
		return true, nil
	}
	return entry.Due(time.Now().UTC(), maxAge), nil
}

// RecordOutcome upserts the entry for the triple.
func (l *Ledger) RecordOutcome(_ context.Context, entry domain.FreshnessEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[ledgerKey(entry.SourceID, entry.ParcelKey, entry.Category)] = entry
	return nil
}

// Entries lists ledger entries, optionally filtered by source id.
func (l *Ledger) Entries(_ context.Context, sourceID string) ([]domain.FreshnessEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.FreshnessEntry
	for _, e := range l.entries {
		if sourceID == "" || e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		if out[i].ParcelKey != out[j].ParcelKey {
			return out[i].ParcelKey < out[j].ParcelKey
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// ==================== Record Store ====================

// RecordStore is an in-memory RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.NormalisedRecord
}

var _ driven.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]domain.NormalisedRecord)}
}

// Get returns a copy of the record for a parcel key.
func (s *RecordStore) Get(_ context.Context, parcelKey string) (*domain.NormalisedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[parcelKey]
	if !ok {
		return nil, fmt.Errorf("%w: record %q", domain.ErrNotFound, parcelKey)
	}
	record.Provenance = append([]domain.ProvenanceEntry(nil), record.Provenance...)
	return &record, nil
}

// Save upserts the record.
func (s *RecordStore) Save(_ context.Context, record *domain.NormalisedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	stored.Provenance = append([]domain.ProvenanceEntry(nil), record.Provenance...)
	s.records[record.ParcelKey] = stored
	return nil
}

// List returns all parcel keys with a record, sorted.
func (s *RecordStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ==================== Source Store ====================

// SourceStore is an in-memory SourceStore.
type SourceStore struct {
	byID  map[string]domain.SourceConfig
	order []string
}

var _ driven.SourceStore = (*SourceStore)(nil)

// NewSourceStore creates a store holding the given sources.
func NewSourceStore(sources ...domain.SourceConfig) *SourceStore {
	s := &SourceStore{byID: make(map[string]domain.SourceConfig, len(sources))}
	for _, cfg := range sources {
		s.byID[cfg.ID] = cfg
		s.order = append(s.order, cfg.ID)
	}
	sort.Strings(s.order)
	return s
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

// ==================== Artifact Store ====================

// ArtifactStore is an in-memory ArtifactStore. Writes are idempotent by
// (source, index key): re-storing the same identity reuses the artifact id.
type ArtifactStore struct {
	mu     sync.RWMutex
	byID   map[string][]byte
	idents map[string]string
}

var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore creates an empty artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		byID:   make(map[string][]byte),
		idents: make(map[string]string),
	}
}

// Put persists the artifact's bytes.
func (s *ArtifactStore) Put(_ context.Context, artifact *domain.RawArtifact) (*domain.RawArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := artifact.SourceID + "|" + artifact.IndexKey
	id, ok := s.idents[identity]
	if !ok {
		id = uuid.NewString()
		s.idents[identity] = id
	}
	s.byID[id] = append([]byte(nil), artifact.Content...)

	stored := *artifact
	stored.ID = id
	stored.StorageRef = "memory:" + id
	return &stored, nil
}

// Get retrieves stored bytes by artifact id.
func (s *ArtifactStore) Get(_ context.Context, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.byID[artifactID]
	if !ok {
		return nil, fmt.Errorf("%w: artifact %q", domain.ErrNotFound, artifactID)
	}
	return append([]byte(nil), content...), nil
}
