package domain

// DocumentReference is one search hit: a recorded instrument the adapter can
// resolve into bytes. Immutable once created.
type DocumentReference struct {
	// SourceID links to the source that produced the hit.
	SourceID string

	// InstrumentType is the legal category of the recorded document
	// (e.g., "MORTGAGE", "LIS PENDENS", "TAX LIEN").
	InstrumentType string

	// RecordingDate is the raw recording date as shown by the portal.
	RecordingDate string

	// DocumentNumber is the portal's document/instrument number, if shown.
	DocumentNumber string

	// Book and Page form the registry index key, where the portal uses one.
	Book string
	Page string

	// Party1 and Party2 are the grantor/grantee names, if shown.
	Party1 string
	Party2 string

	// FetchURL is the retrieval handle the adapter resolves into bytes.
	FetchURL string
}

// IndexKey returns a stable identity for the reference within its source,
// used for idempotent artifact storage. Prefers the document number, then
// book/page, then the fetch URL.
func (r DocumentReference) IndexKey() string {
	switch {
	case r.DocumentNumber != "":
		return r.DocumentNumber
	case r.Book != "" && r.Page != "":
		return r.Book + "-" + r.Page
	default:
		return r.FetchURL
	}
}
