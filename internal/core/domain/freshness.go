package domain

import "time"

// Outcome classifies the result of an ingestion attempt.
type Outcome string

const (
	// OutcomeFound means the search returned documents that were ingested.
	OutcomeFound Outcome = "found"

	// OutcomeNotFound means the search validly returned zero results.
	// It is a success: the ledger entry stops the pipeline from repeatedly
	// hammering a source for data that does not exist.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeError means the attempt failed after exhausting retries.
	OutcomeError Outcome = "error"
)

// FreshnessEntry records the last ingestion attempt for one
// (source, parcel, category) triple. Entries are updated, never deleted;
// absence means "never attempted".
type FreshnessEntry struct {
	SourceID  string
	ParcelKey string
	Category  Category

	// CheckedAt is when the attempt completed.
	CheckedAt time.Time

	// Outcome is the attempt's result.
	Outcome Outcome
}

// Due reports whether a re-fetch is warranted given the maximum age.
// Error outcomes are always due: a failed attempt never suppresses a retry
// on the next scheduling pass.
func (e *FreshnessEntry) Due(now time.Time, maxAge time.Duration) bool {
	if e == nil {
		return true
	}
	if e.Outcome == OutcomeError {
		return true
	}
	return now.Sub(e.CheckedAt) > maxAge
}

// Default freshness windows per data category.
const (
	DefaultMortgageMaxAge    = 90 * 24 * time.Hour
	DefaultForeclosureMaxAge = 90 * 24 * time.Hour
	DefaultTaxMaxAge         = 365 * 24 * time.Hour
)

// DefaultMaxAge returns the default freshness window for a category.
func DefaultMaxAge(category Category) time.Duration {
	if category == CategoryTax {
		return DefaultTaxMaxAge
	}
	return DefaultMortgageMaxAge
}
