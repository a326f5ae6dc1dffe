package parsers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry dispatches artifacts to field parsers by instrument type. An
// exact instrument-type match wins; otherwise the category fallback parser
// (one registered with no instrument types) handles the document.
type Registry struct {
	extractor driven.TextExtractor

	mu        sync.RWMutex
	byType    map[string]driven.DocumentParser
	fallbacks map[domain.Category]driven.DocumentParser
}

// NewRegistry creates a registry backed by the given text extractor.
func NewRegistry(extractor driven.TextExtractor) *Registry {
	return &Registry{
		extractor: extractor,
		byType:    make(map[string]driven.DocumentParser),
		fallbacks: make(map[domain.Category]driven.DocumentParser),
	}
}

// Register adds a parser. A parser with no instrument types becomes the
// fallback for its category; later registrations win.
func (r *Registry) Register(parser driven.DocumentParser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := parser.InstrumentTypes()
	if len(types) == 0 {
		r.fallbacks[parser.Category()] = parser
		return
	}
	for _, t := range types {
		r.byType[canonicalType(t)] = parser
	}
}

// Parse extracts text from the artifact and parses it with the best match
// for the instrument type. The extraction confidence is stamped onto the
// returned fields.
func (r *Registry) Parse(ctx context.Context, artifact *domain.RawArtifact, instrumentType string) (domain.ParsedFields, error) {
	parser, err := r.lookup(instrumentType)
	if err != nil {
		return domain.ParsedFields{}, err
	}

	text, confidence, err := r.extractor.Extract(ctx, artifact)
	if err != nil {
		return domain.ParsedFields{}, fmt.Errorf("extracting %s: %w", artifact.ID, err)
	}

	fields, err := parser.Parse(ctx, text)
	if err != nil {
		return domain.ParsedFields{}, fmt.Errorf("parsing %s as %s: %w", artifact.ID, instrumentType, err)
	}
	fields.Confidence = confidence

	if fields.Empty() {
		logger.Debug("no fields extracted from %s (%s)", artifact.ID, instrumentType)
	}
	return fields, nil
}

// lookup resolves the parser for an instrument type.
func (r *Registry) lookup(instrumentType string) (driven.DocumentParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byType[canonicalType(instrumentType)]; ok {
		return p, nil
	}
	category := domain.CategoryForInstrument(canonicalType(instrumentType))
	if p, ok := r.fallbacks[category]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no parser for instrument type %q (category %s)", instrumentType, category)
}

func canonicalType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
