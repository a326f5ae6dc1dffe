package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/deedline/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLedger_MissingEntryIsDue(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()

	due, err := ledger.IsDue(context.Background(), "essex-south", "salem:042-17-3", domain.CategoryMortgage, domain.DefaultMortgageMaxAge)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestLedger_FreshEntrySuppressesRefetch(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()
	ctx := context.Background()

	require.NoError(t, ledger.RecordOutcome(ctx, domain.FreshnessEntry{
		SourceID:  "essex-south",
		ParcelKey: "salem:042-17-3",
		Category:  domain.CategoryMortgage,
		CheckedAt: time.Now().UTC().Add(-24 * time.Hour),
		Outcome:   domain.OutcomeFound,
	}))

	due, err := ledger.IsDue(ctx, "essex-south", "salem:042-17-3", domain.CategoryMortgage, domain.DefaultMortgageMaxAge)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestLedger_StaleEntryIsDue(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()
	ctx := context.Background()

	require.NoError(t, ledger.RecordOutcome(ctx, domain.FreshnessEntry{
		SourceID:  "essex-south",
		ParcelKey: "salem:042-17-3",
		Category:  domain.CategoryMortgage,
		CheckedAt: time.Now().UTC().Add(-91 * 24 * time.Hour),
		Outcome:   domain.OutcomeFound,
	}))

	due, err := ledger.IsDue(ctx, "essex-south", "salem:042-17-3", domain.CategoryMortgage, domain.DefaultMortgageMaxAge)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestLedger_ErrorOutcomeAlwaysDue(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()
	ctx := context.Background()

	require.NoError(t, ledger.RecordOutcome(ctx, domain.FreshnessEntry{
		SourceID:  "essex-south",
		ParcelKey: "salem:042-17-3",
		Category:  domain.CategoryMortgage,
		CheckedAt: time.Now().UTC(),
		Outcome:   domain.OutcomeError,
	}))

	due, err := ledger.IsDue(ctx, "essex-south", "salem:042-17-3", domain.CategoryMortgage, domain.DefaultMortgageMaxAge)
	require.NoError(t, err)
	assert.True(t, due, "a failed attempt never suppresses the next one")
}

func TestLedger_UpsertNeverDuplicates(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()
	ctx := context.Background()

	entry := domain.FreshnessEntry{
		SourceID:  "essex-south",
		ParcelKey: "salem:042-17-3",
		Category:  domain.CategoryMortgage,
		CheckedAt: time.Now().UTC(),
		Outcome:   domain.OutcomeNotFound,
	}
	require.NoError(t, ledger.RecordOutcome(ctx, entry))
	entry.Outcome = domain.OutcomeFound
	require.NoError(t, ledger.RecordOutcome(ctx, entry))

	entries, err := ledger.Entries(ctx, "essex-south")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeFound, entries[0].Outcome)
}

func TestLedger_EntriesFilterBySource(t *testing.T) {
	ledger := newTestStore(t).FreshnessLedger()
	ctx := context.Background()

	for _, sourceID := range []string{"essex-south", "salem-assessor"} {
		require.NoError(t, ledger.RecordOutcome(ctx, domain.FreshnessEntry{
			SourceID:  sourceID,
			ParcelKey: "salem:042-17-3",
			Category:  domain.CategoryTax,
			CheckedAt: time.Now().UTC(),
			Outcome:   domain.OutcomeFound,
		}))
	}

	all, err := ledger.Entries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := ledger.Entries(ctx, "salem-assessor")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "salem-assessor", one[0].SourceID)
}

func TestRecords_RoundTripWithProvenance(t *testing.T) {
	records := newTestStore(t).RecordStore()
	ctx := context.Background()

	loan := 450000.0
	rate := 0.0525
	term := 360
	now := time.Now().UTC().Truncate(time.Second)

	record := &domain.NormalisedRecord{
		ParcelKey: "salem:042-17-3",
		Mortgage: domain.ParsedFields{
			LoanAmount:   &loan,
			InterestRate: &rate,
			TermMonths:   &term,
			Lender:       "Example Bank",
			Confidence:   domain.ConfidenceText,
		},
		Provenance: []domain.ProvenanceEntry{{
			SourceID:       "essex-south",
			InstrumentType: "MORTGAGE",
			DocumentDate:   "2019-03-14",
			ArtifactRef:    "artifact-1",
			IngestedAt:     now,
		}},
		UpdatedAt: now,
	}
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, "salem:042-17-3")
	require.NoError(t, err)

	require.NotNil(t, got.Mortgage.LoanAmount)
	assert.InDelta(t, 450000.0, *got.Mortgage.LoanAmount, 0.001)
	assert.Equal(t, "Example Bank", got.Mortgage.Lender)
	assert.Equal(t, domain.ConfidenceText, got.Mortgage.Confidence)
	assert.True(t, got.Tax.Empty())

	require.Len(t, got.Provenance, 1)
	assert.Equal(t, "essex-south", got.Provenance[0].SourceID)
	assert.Equal(t, "artifact-1", got.Provenance[0].ArtifactRef)
}

func TestRecords_ResaveDoesNotDuplicateProvenance(t *testing.T) {
	records := newTestStore(t).RecordStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := &domain.NormalisedRecord{
		ParcelKey: "salem:042-17-3",
		Provenance: []domain.ProvenanceEntry{{
			SourceID:       "essex-south",
			InstrumentType: "MORTGAGE",
			DocumentDate:   "2019-03-14",
			ArtifactRef:    "artifact-1",
			IngestedAt:     now,
		}},
		UpdatedAt: now,
	}
	require.NoError(t, records.Save(ctx, record))
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, "salem:042-17-3")
	require.NoError(t, err)
	assert.Len(t, got.Provenance, 1)
}

func TestRecords_RevisedDocumentKeepsBothProvenanceRows(t *testing.T) {
	records := newTestStore(t).RecordStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	entry := domain.ProvenanceEntry{
		SourceID:       "essex-south",
		InstrumentType: "MORTGAGE",
		DocumentDate:   "2019-03-14",
		ArtifactRef:    "artifact-1",
		IngestedAt:     now,
	}
	record := &domain.NormalisedRecord{
		ParcelKey:  "salem:042-17-3",
		Provenance: []domain.ProvenanceEntry{entry},
		UpdatedAt:  now,
	}
	require.NoError(t, records.Save(ctx, record))

	// A re-ingestion that revised the parsed values appends a second entry
	// for the same document at a later time; both rows must persist.
	revised := entry
	revised.IngestedAt = now.Add(time.Hour)
	record.Provenance = append(record.Provenance, revised)
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, "salem:042-17-3")
	require.NoError(t, err)
	require.Len(t, got.Provenance, 2)
	assert.Equal(t, now, got.Provenance[0].IngestedAt)
	assert.Equal(t, now.Add(time.Hour), got.Provenance[1].IngestedAt)
}

func TestRecords_ProvenanceAccumulatesAcrossSources(t *testing.T) {
	records := newTestStore(t).RecordStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	record := &domain.NormalisedRecord{
		ParcelKey: "salem:042-17-3",
		Provenance: []domain.ProvenanceEntry{{
			SourceID: "essex-south", InstrumentType: "MORTGAGE", IngestedAt: now,
		}},
		UpdatedAt: now,
	}
	require.NoError(t, records.Save(ctx, record))

	record.Provenance = append(record.Provenance, domain.ProvenanceEntry{
		SourceID: "salem-assessor", InstrumentType: "ASSESSMENT", IngestedAt: now,
	})
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, "salem:042-17-3")
	require.NoError(t, err)
	assert.Len(t, got.Provenance, 2)
}

func TestRecords_GetMissing(t *testing.T) {
	records := newTestStore(t).RecordStore()

	_, err := records.Get(context.Background(), "nowhere:1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecords_ListSorted(t *testing.T) {
	records := newTestStore(t).RecordStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, key := range []string{"salem:9", "beverly:1", "salem:1"} {
		require.NoError(t, records.Save(ctx, &domain.NormalisedRecord{ParcelKey: key, UpdatedAt: now}))
	}

	keys, err := records.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beverly:1", "salem:1", "salem:9"}, keys)
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}
