package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/core/ports/driving"
	"github.com/parcelworks/deedline/internal/logger"
	"github.com/parcelworks/deedline/internal/normalise"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultWorkers sizes the IngestAll worker pool. Parallelism is
// independent of source count: rate limits, not workers, pace each source.
const DefaultWorkers = 4

// IngestOptions configure an IngestService.
type IngestOptions struct {
	// Workers bounds the IngestAll pool. Zero means the default.
	Workers int

	// MaxAttempts bounds retries per step. Zero means the default.
	MaxAttempts int

	// RetryBaseDelay seeds the backoff. Zero means the default.
	RetryBaseDelay time.Duration
}

// IngestService orchestrates one unit of work end to end: freshness check,
// search, fetch, store, parse, merge, ledger update.
type IngestService struct {
	sources   driven.SourceStore
	factory   driven.AdapterFactory
	limiters  *LimiterRegistry
	artifacts driven.ArtifactStore
	parsers   driven.ParserRegistry
	ledger    driven.FreshnessLedger
	records   driven.RecordStore

	retry   *retryPolicy
	workers int

	// keyLocks serialises the read-merge-write critical section per parcel
	// key so concurrent units never tear a record.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex

	now func() time.Time
}

// NewIngestService wires the orchestrator.
func NewIngestService(
	sources driven.SourceStore,
	factory driven.AdapterFactory,
	limiters *LimiterRegistry,
	artifacts driven.ArtifactStore,
	parsers driven.ParserRegistry,
	ledger driven.FreshnessLedger,
	records driven.RecordStore,
	opts IngestOptions,
) *IngestService {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &IngestService{
		sources:   sources,
		factory:   factory,
		limiters:  limiters,
		artifacts: artifacts,
		parsers:   parsers,
		ledger:    ledger,
		records:   records,
		retry:     newRetryPolicy(opts.MaxAttempts, opts.RetryBaseDelay),
		workers:   workers,
		keyLocks:  make(map[string]*sync.Mutex),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest runs one unit of work synchronously.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	cfg, err := s.sources.Get(req.SourceID)
	if err != nil {
		return nil, err
	}
	if err := req.Query.Validate(); err != nil {
		return nil, err
	}

	unit := domain.WorkUnit{
		SourceID:  cfg.ID,
		Query:     req.Query,
		ParcelKey: recordKey(req),
		State:     domain.UnitRunning,
	}
	result := s.runUnit(ctx, cfg, req, &unit)
	return result, nil
}

// IngestAll fans one request out across all configured sources through the
// worker pool. Results come back ordered by source id.
func (s *IngestService) IngestAll(ctx context.Context, req driving.IngestRequest) ([]driving.IngestResult, error) {
	configs := s.sources.List()
	results := make([]driving.IngestResult, len(configs))

	type job struct {
		idx int
		cfg domain.SourceConfig
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				unitReq := req
				unitReq.SourceID = j.cfg.ID
				unit := domain.WorkUnit{
					SourceID:  j.cfg.ID,
					Query:     req.Query,
					ParcelKey: recordKey(unitReq),
					State:     domain.UnitRunning,
				}
				results[j.idx] = *s.runUnit(ctx, &j.cfg, unitReq, &unit)
			}
		}()
	}

dispatch:
	for i := range configs {
		select {
		case jobs <- job{idx: i, cfg: configs[i]}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// runUnit executes the unit's state machine against one source.
func (s *IngestService) runUnit(ctx context.Context, cfg *domain.SourceConfig, req driving.IngestRequest, unit *domain.WorkUnit) *driving.IngestResult {
	result := &driving.IngestResult{SourceID: cfg.ID, ParcelKey: unit.ParcelKey}

	categories := relevantCategories(cfg)

	if !req.ForceRefresh {
		due, err := s.anyDue(ctx, cfg.ID, unit.ParcelKey, categories, req.MaxAge)
		if err != nil {
			return s.fail(ctx, req, unit, result, categories, err)
		}
		if !due {
			unit.State = domain.UnitSkipped
			result.State = domain.UnitSkipped
			logger.Debug("%s/%s not due, skipping", cfg.ID, unit.ParcelKey)
			return result
		}
	}

	adapter, err := s.factory.Create(*cfg, s.limiters.For(cfg.ID, cfg.RequestsPerSecond))
	if err != nil {
		return s.fail(ctx, req, unit, result, categories, err)
	}
	defer adapter.Close()

	var refs []domain.DocumentReference
	unit.Attempts, err = s.retry.do(ctx, cfg.ID+" search", func(ctx context.Context) error {
		var searchErr error
		refs, searchErr = adapter.Search(ctx, req.Query)
		return searchErr
	})
	if err != nil {
		return s.fail(ctx, req, unit, result, categories, fmt.Errorf("searching %s: %w", cfg.ID, err))
	}

	if len(refs) == 0 {
		unit.State = domain.UnitSucceeded
		result.State = domain.UnitSucceeded
		result.Outcome = domain.OutcomeNotFound
		s.recordOutcomes(ctx, req, cfg.ID, unit.ParcelKey, categories, domain.OutcomeNotFound)
		return result
	}

	merges, err := s.ingestDocuments(ctx, adapter, cfg, req, refs)
	if err != nil {
		return s.fail(ctx, req, unit, result, categories, err)
	}

	record, err := s.mergeRecord(ctx, unit.ParcelKey, merges, req.DryRun)
	if err != nil {
		return s.fail(ctx, req, unit, result, categories, err)
	}

	unit.State = domain.UnitSucceeded
	result.State = domain.UnitSucceeded
	result.Outcome = domain.OutcomeFound
	result.Documents = len(merges)
	result.Record = record
	s.recordOutcomes(ctx, req, cfg.ID, unit.ParcelKey, categories, domain.OutcomeFound)
	return result
}

// merge is one parsed document ready to fold into the record.
type merge struct {
	category domain.Category
	fields   domain.ParsedFields
	prov     domain.ProvenanceEntry
}

// ingestDocuments fetches, stores, and parses every reference.
func (s *IngestService) ingestDocuments(ctx context.Context, adapter driven.SourceAdapter, cfg *domain.SourceConfig, req driving.IngestRequest, refs []domain.DocumentReference) ([]merge, error) {
	merges := make([]merge, 0, len(refs))

	for _, ref := range refs {
		var artifact *domain.RawArtifact
		_, err := s.retry.do(ctx, cfg.ID+" fetch "+ref.IndexKey(), func(ctx context.Context) error {
			var fetchErr error
			artifact, fetchErr = adapter.Fetch(ctx, ref)
			return fetchErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetching %s from %s: %w", ref.IndexKey(), cfg.ID, err)
		}

		if !req.DryRun {
			if artifact, err = s.artifacts.Put(ctx, artifact); err != nil {
				return nil, fmt.Errorf("storing artifact %s: %w", ref.IndexKey(), err)
			}
		}

		fields, err := s.parsers.Parse(ctx, artifact, ref.InstrumentType)
		switch {
		case errors.Is(err, domain.ErrNoTextExtracted):
			// The artifact is kept and provenance recorded with empty
			// fields; a later tooling fix can re-parse it.
			logger.Warn("no text extracted from %s (%s), keeping artifact", ref.IndexKey(), cfg.ID)
			fields = domain.ParsedFields{}
		case err != nil:
			return nil, fmt.Errorf("parsing %s from %s: %w", ref.IndexKey(), cfg.ID, err)
		}

		documentDate := ref.RecordingDate
		if canonical, ok := normalise.ParseDate(documentDate); ok {
			documentDate = canonical
		}

		merges = append(merges, merge{
			category: domain.CategoryForInstrument(ref.InstrumentType),
			fields:   fields,
			prov: domain.ProvenanceEntry{
				SourceID:       cfg.ID,
				InstrumentType: ref.InstrumentType,
				DocumentDate:   documentDate,
				ArtifactRef:    artifact.ID,
				IngestedAt:     s.now(),
			},
		})
	}
	return merges, nil
}

// mergeRecord folds parsed documents into the normalised record under the
// parcel key's lock. Dry runs return the would-be record without saving.
func (s *IngestService) mergeRecord(ctx context.Context, parcelKey string, merges []merge, dryRun bool) (*domain.NormalisedRecord, error) {
	lock := s.lockFor(parcelKey)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.records.Get(ctx, parcelKey)
	if errors.Is(err, domain.ErrNotFound) {
		record = &domain.NormalisedRecord{ParcelKey: parcelKey}
	} else if err != nil {
		return nil, fmt.Errorf("loading record %s: %w", parcelKey, err)
	}

	changed := false
	for _, m := range merges {
		changed = record.Merge(m.category, m.fields, m.prov) || changed
	}

	if changed && !dryRun {
		if err := s.records.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("saving record %s: %w", parcelKey, err)
		}
	}
	return record, nil
}

// fail marks the unit failed and records error outcomes in the ledger so
// the next scheduling pass retries.
func (s *IngestService) fail(ctx context.Context, req driving.IngestRequest, unit *domain.WorkUnit, result *driving.IngestResult, categories []domain.Category, err error) *driving.IngestResult {
	unit.State = domain.UnitFailed
	unit.Err = err
	result.State = domain.UnitFailed
	result.Outcome = domain.OutcomeError
	result.Err = fmt.Errorf("source %s, parcel %s: %w", result.SourceID, result.ParcelKey, err)
	logger.Error("%v", result.Err)
	s.recordOutcomes(ctx, req, result.SourceID, result.ParcelKey, categories, domain.OutcomeError)
	return result
}

// recordOutcomes upserts ledger entries for every relevant category.
// Dry runs leave the ledger untouched.
func (s *IngestService) recordOutcomes(ctx context.Context, req driving.IngestRequest, sourceID, parcelKey string, categories []domain.Category, outcome domain.Outcome) {
	if req.DryRun {
		return
	}
	for _, category := range categories {
		err := s.ledger.RecordOutcome(ctx, domain.FreshnessEntry{
			SourceID:  sourceID,
			ParcelKey: parcelKey,
			Category:  category,
			CheckedAt: s.now(),
			Outcome:   outcome,
		})
		if err != nil {
			logger.Warn("recording %s outcome for %s/%s: %v", outcome, sourceID, parcelKey, err)
		}
	}
}

// anyDue reports whether any relevant category wants a re-fetch.
func (s *IngestService) anyDue(ctx context.Context, sourceID, parcelKey string, categories []domain.Category, maxAge time.Duration) (bool, error) {
	for _, category := range categories {
		age := maxAge
		if age <= 0 {
			age = domain.DefaultMaxAge(category)
		}
		due, err := s.ledger.IsDue(ctx, sourceID, parcelKey, category, age)
		if err != nil {
			return false, fmt.Errorf("checking freshness: %w", err)
		}
		if due {
			return true, nil
		}
	}
	return false, nil
}

// lockFor returns the mutex guarding a parcel key.
func (s *IngestService) lockFor(parcelKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.keyLocks[parcelKey]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[parcelKey] = lock
	}
	return lock
}

// relevantCategories lists the data categories a source can produce, from
// its instrument-type allow-list. An unrestricted source covers all three.
func relevantCategories(cfg *domain.SourceConfig) []domain.Category {
	if len(cfg.InstrumentTypes) == 0 {
		return domain.Categories()
	}
	seen := make(map[domain.Category]bool)
	var categories []domain.Category
	for _, t := range cfg.InstrumentTypes {
		c := domain.CategoryForInstrument(t)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	return categories
}

// recordKey derives the canonical record key for a request.
func recordKey(req driving.IngestRequest) string {
	switch req.Query.Mode {
	case domain.QueryByParcel:
		return normalise.ParcelKey(req.Municipality, req.Query.ParcelID)
	case domain.QueryByAddress:
		return normalise.AddressKey(req.Municipality, req.Query.Address)
	default:
		return normalise.OwnerKey(req.Municipality, req.Query.Owner)
	}
}
