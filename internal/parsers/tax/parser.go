// Package tax extracts assessment and tax-bill figures from assessor
// exports and tax-lien instruments.
package tax

import (
	"context"
	"regexp"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/normalise"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

const amountPart = `\$?([\d,]+\.?\d*)`

var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s+(?:assessed\s+)?(?:value|assessment)[:\s]+` + amountPart),
	regexp.MustCompile(`(?i)assessed\s+(?:value|total)[:\s]+` + amountPart),
}

var landPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)land\s+(?:assessed\s+)?value[:\s]+` + amountPart),
	regexp.MustCompile(`(?i)assessed\s+land[:\s]+` + amountPart),
}

var buildingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:building|improvement)s?\s+(?:assessed\s+)?value[:\s]+` + amountPart),
	regexp.MustCompile(`(?i)assessed\s+(?:building|improvement)s?[:\s]+` + amountPart),
}

var taxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:annual|total)\s+tax(?:es)?[:\s]+` + amountPart),
	regexp.MustCompile(`(?i)tax\s+(?:amount|bill|due)[:\s]+` + amountPart),
	regexp.MustCompile(`(?i)taxes\s+(?:owed|due)[:\s]+` + amountPart),
}

// Parser extracts tax and assessment fields from document text.
type Parser struct{}

// New creates a tax parser.
func New() *Parser { return &Parser{} }

// Category returns the tax data category.
func (p *Parser) Category() domain.Category { return domain.CategoryTax }

// InstrumentTypes returns nil: this parser is the fallback for every
// tax-category instrument.
func (p *Parser) InstrumentTypes() []string { return nil }

// Parse extracts assessed values and the tax bill.
func (p *Parser) Parse(_ context.Context, text string) (domain.ParsedFields, error) {
	var fields domain.ParsedFields
	fields.AssessedTotal = firstAmount(totalPatterns, text)
	fields.AssessedLand = firstAmount(landPatterns, text)
	fields.AssessedBuilding = firstAmount(buildingPatterns, text)
	fields.TaxAmount = firstAmount(taxPatterns, text)

	// Assessor exports often list land and building but no printed total.
	if fields.AssessedTotal == nil && fields.AssessedLand != nil && fields.AssessedBuilding != nil {
		total := *fields.AssessedLand + *fields.AssessedBuilding
		fields.AssessedTotal = &total
	}
	return fields, nil
}

func firstAmount(patterns []*regexp.Regexp, text string) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if amount, ok := normalise.ParseAmount(m[1]); ok {
			return &amount
		}
	}
	return nil
}
