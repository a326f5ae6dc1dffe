package domain

import "time"

// RawArtifact is a downloaded document: bytes plus retrieval metadata.
// Artifacts are write-once; a re-fetch creates a new artifact rather than
// editing an existing one.
type RawArtifact struct {
	// ID is the artifact identifier assigned by the artifact store.
	ID string

	// SourceID links to the source the bytes were fetched from.
	SourceID string

	// IndexKey is the source-scoped identity of the originating reference.
	IndexKey string

	// ContentType is the MIME type reported (or sniffed) on download.
	ContentType string

	// Content is the raw bytes. Empty on records loaded from a listing.
	Content []byte

	// RetrievedAt is when the download completed.
	RetrievedAt time.Time

	// StorageRef is the backend-specific location (path or object key).
	StorageRef string
}

// IsImage reports whether the artifact is a scanned image rather than a
// document with a text layer.
func (a *RawArtifact) IsImage() bool {
	switch a.ContentType {
	case "image/tiff", "image/png", "image/jpeg":
		return true
	}
	return false
}
