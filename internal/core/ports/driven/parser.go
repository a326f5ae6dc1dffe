package driven

import (
	"context"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// DocumentParser extracts structured fields from a document's text.
// Each parser handles the instrument types of one data category.
//
// A parser that finds no match for a field returns that field absent, not an
// error; absence is expected for many documents.
type DocumentParser interface {
	// Category returns the data category this parser produces fields for.
	Category() domain.Category

	// InstrumentTypes returns the instrument types this parser handles.
	// Empty means it is the fallback for its category.
	InstrumentTypes() []string

	// Parse extracts fields from already-extracted document text.
	Parse(ctx context.Context, text string) (domain.ParsedFields, error)
}

// TextExtractor turns artifact bytes into text, attempting the document's
// text layer first and falling back to OCR on rasterised pages when the
// extracted text falls below a minimum-character threshold.
type TextExtractor interface {
	// Extract returns the document text and the confidence of the path
	// that produced it. Returns ErrNoTextExtracted when both paths yield
	// nothing usable.
	Extract(ctx context.Context, artifact *domain.RawArtifact) (string, domain.Confidence, error)
}

// ParserRegistry dispatches an artifact to the parser matching its
// instrument type and runs extraction ahead of parsing.
type ParserRegistry interface {
	// Register adds a parser to the registry.
	Register(parser DocumentParser)

	// Parse extracts text from the artifact and parses it with the best
	// matching parser for the instrument type.
	Parse(ctx context.Context, artifact *domain.RawArtifact, instrumentType string) (domain.ParsedFields, error)
}
