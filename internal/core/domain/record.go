package domain

import "time"

// ProvenanceEntry traces a field set back to the document that produced it.
type ProvenanceEntry struct {
	// SourceID is the portal the document came from.
	SourceID string `json:"source_id"`

	// InstrumentType is the legal category of the document.
	InstrumentType string `json:"instrument_type"`

	// DocumentDate is the recording date (canonical YYYY-MM-DD where known).
	DocumentDate string `json:"document_date"`

	// ArtifactRef is the stored artifact id, empty if no bytes were kept.
	ArtifactRef string `json:"artifact_ref,omitempty"`

	// IngestedAt is when the entry was appended.
	IngestedAt time.Time `json:"ingested_at"`
}

// NormalisedRecord is the pipeline's external contract: one record per
// canonical parcel key, merged fields per category, and an append-on-change
// provenance list. Later ingestions upsert into it; they never replace
// unrelated fields.
type NormalisedRecord struct {
	// ParcelKey is the canonical parcel identifier.
	ParcelKey string `json:"parcel_key"`

	// Mortgage, Foreclosure and Tax hold the merged fields per category.
	Mortgage    ParsedFields `json:"mortgage"`
	Foreclosure ParsedFields `json:"foreclosure"`
	Tax         ParsedFields `json:"tax"`

	// Provenance lists every ingestion that changed the record.
	Provenance []ProvenanceEntry `json:"provenance"`

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryFields returns a pointer to the field set for a category.
func (r *NormalisedRecord) CategoryFields(category Category) *ParsedFields {
	switch category {
	case CategoryForeclosure:
		return &r.Foreclosure
	case CategoryTax:
		return &r.Tax
	default:
		return &r.Mortgage
	}
}

// Merge folds parsed fields into the record's category and appends the
// provenance entry when anything changed. Absent incoming fields never
// clear present ones. Returns true when the record was modified.
//
// Provenance is append-on-change: an ingestion that yields different values
// appends a new entry rather than silently overwriting history, even when an
// earlier entry traces the same document (a revised value from a re-fetched
// artifact must stay visible). Only a no-change re-ingestion is deduplicated.
// An ingestion whose fields are all absent still appends provenance once per
// artifact so that a downloaded-but-unparseable document remains traceable.
func (r *NormalisedRecord) Merge(category Category, fields ParsedFields, prov ProvenanceEntry) bool {
	dst := r.CategoryFields(category)
	changed := false

	changed = mergeFloat(&dst.LoanAmount, fields.LoanAmount) || changed
	changed = mergeFloat(&dst.InterestRate, fields.InterestRate) || changed
	changed = mergeInt(&dst.TermMonths, fields.TermMonths) || changed
	changed = mergeString(&dst.Lender, fields.Lender) || changed
	changed = mergeFloat(&dst.JudgmentAmount, fields.JudgmentAmount) || changed
	changed = mergeString(&dst.AuctionDate, fields.AuctionDate) || changed
	changed = mergeFloat(&dst.AssessedTotal, fields.AssessedTotal) || changed
	changed = mergeFloat(&dst.AssessedLand, fields.AssessedLand) || changed
	changed = mergeFloat(&dst.AssessedBuilding, fields.AssessedBuilding) || changed
	changed = mergeFloat(&dst.TaxAmount, fields.TaxAmount) || changed
	if len(fields.Parties) > 0 {
		dst.Parties = append([]string(nil), fields.Parties...)
		changed = true
	}
	if fields.Confidence != "" && dst.Confidence != fields.Confidence {
		dst.Confidence = fields.Confidence
		changed = true
	}

	switch {
	case changed:
		r.Provenance = append(r.Provenance, prov)
	case fields.Empty() && !r.hasProvenance(prov):
		r.Provenance = append(r.Provenance, prov)
		changed = true
	}
	if changed {
		r.UpdatedAt = prov.IngestedAt
	}
	return changed
}

// hasProvenance reports whether an equivalent entry was already appended,
// so re-ingesting an unchanged empty-fields document stays idempotent.
func (r *NormalisedRecord) hasProvenance(p ProvenanceEntry) bool {
	for _, e := range r.Provenance {
		if e.SourceID == p.SourceID && e.InstrumentType == p.InstrumentType &&
			e.DocumentDate == p.DocumentDate && e.ArtifactRef == p.ArtifactRef {
			return true
		}
	}
	return false
}

func mergeFloat(dst **float64, src *float64) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

func mergeInt(dst **int, src *int) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

func mergeString(dst *string, src string) bool {
	if src == "" || *dst == src {
		return false
	}
	*dst = src
	return true
}
