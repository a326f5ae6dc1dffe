// Package mortgage extracts loan terms from recorded mortgage instruments.
//
// Extraction is rule-based: each field carries an ordered list of patterns
// and the first match wins. A field with no matching pattern is left absent,
// which is the expected outcome for many documents.
package mortgage

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/normalise"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// amountPatterns match the principal, in order of reliability. The written
// form ("Four Hundred Fifty Thousand") is tried last, only when no
// currency-formatted amount matched.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:principal|loan|mortgage)\s+amount[:\s]+\$?([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)sum\s+of[:\s]+\$?([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)indebtedness[:\s]+\$?([\d,]+\.?\d*)`),
}

var writtenAmountPattern = regexp.MustCompile(`(?i)(?:principal|loan|mortgage)\s+amount[:\s]+([A-Za-z\s-]+?)\s*(?:dollars|and\b)`)

var ratePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)interest\s+rate[:\s]+([\d.]+)\s*%?`),
	regexp.MustCompile(`(?i)rate\s+of[:\s]+([\d.]+)\s*%?\s+per`),
	regexp.MustCompile(`(?i)bearing\s+interest\s+at[:\s]+([\d.]+)\s*%?`),
}

// termPatterns capture the loan term; yearsTerm marks which patterns speak
// in years rather than months.
var termPatterns = []struct {
	re    *regexp.Regexp
	years bool
}{
	{regexp.MustCompile(`(?i)term[:\s]+(\d+)\s+years?`), true},
	{regexp.MustCompile(`(?i)(\d+)\s+years?\s+term`), true},
	{regexp.MustCompile(`(?i)term[:\s]+(\d+)\s+months?`), false},
	{regexp.MustCompile(`(?i)(\d+)\s+months?\s+term`), false},
}

// lenderSuffixes anchor the end of an institutional name.
const lenderSuffixes = `(?:Bank|Mortgage|Credit Union|Financial|Lending|Savings|Corp|Company|Inc|LLC|N\.A\.)`

var lenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lender[:\s]+([A-Z][A-Za-z\s,.&]+?` + lenderSuffixes + `)`),
	regexp.MustCompile(`(?i)(?:to|from)[:\s]+([A-Z][A-Za-z\s,.&]+?` + lenderSuffixes + `)`),
	regexp.MustCompile(`(?i)holder[:\s]+([A-Z][A-Za-z\s,.&]+?` + lenderSuffixes + `)`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// minLenderLen rejects fragments too short to be an institution name.
const minLenderLen = 6

// Parser extracts mortgage fields from document text.
type Parser struct{}

// New creates a mortgage parser.
func New() *Parser { return &Parser{} }

// Category returns the mortgage data category.
func (p *Parser) Category() domain.Category { return domain.CategoryMortgage }

// InstrumentTypes returns nil: this parser is the fallback for every
// mortgage-category instrument.
func (p *Parser) InstrumentTypes() []string { return nil }

// Parse extracts loan amount, interest rate, term, and lender.
func (p *Parser) Parse(_ context.Context, text string) (domain.ParsedFields, error) {
	var fields domain.ParsedFields
	fields.LoanAmount = extractAmount(text)
	fields.InterestRate = extractRate(text)
	fields.TermMonths = extractTerm(text)
	fields.Lender = extractLender(text)
	return fields, nil
}

func extractAmount(text string) *float64 {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if amount, ok := normalise.ParseAmount(m[1]); ok {
			return &amount
		}
	}
	if m := writtenAmountPattern.FindStringSubmatch(text); m != nil {
		if n, ok := normalise.ParseWrittenNumber(m[1]); ok {
			amount := float64(n)
			return &amount
		}
	}
	return nil
}

func extractRate(text string) *float64 {
	for _, re := range ratePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if rate, ok := normalise.ParseRate(m[1]); ok {
			return &rate
		}
	}
	return nil
}

func extractTerm(text string) *int {
	for _, tp := range termPatterns {
		m := tp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil || value <= 0 {
			continue
		}
		if tp.years {
			value *= 12
		}
		return &value
	}
	return nil
}

func extractLender(text string) string {
	for _, re := range lenderPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		lender := whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		if len(lender) >= minLenderLen {
			return lender
		}
	}
	return ""
}
