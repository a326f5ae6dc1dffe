// Package foreclosure extracts judgment and auction details from
// foreclosure-track instruments (lis pendens, judgments, notices of sale).
//
// The rules follow the same shape as the mortgage parser: ordered patterns
// per field, first match wins, absence is valid.
package foreclosure

import (
	"context"
	"regexp"
	"strings"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/normalise"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

var judgmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)judgment\s+(?:amount|in\s+the\s+amount\s+of)[:\s]+\$?([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)judgment\s+(?:was\s+)?entered\s+for[:\s]+\$?([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)amount\s+due[:\s]+\$?([\d,]+\.?\d*)`),
}

// auctionDatePatterns capture a date in any layout ParseDate understands.
const datePart = `(\d{4}-\d{2}-\d{2}|[A-Za-z]*\.?\s*\d{1,2}[\s,/-]+(?:[A-Za-z]+\.?[\s,/-]*)?\d{2,4}(?:[\s,/-]+\d{4})?)`

var auctionDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:auction|sale)\s+date[:\s]+` + datePart),
	regexp.MustCompile(`(?i)(?:public\s+auction|foreclosure\s+sale)\s+(?:to\s+be\s+held\s+)?on[:\s]+` + datePart),
	regexp.MustCompile(`(?i)will\s+be\s+sold\s+(?:at\s+public\s+auction\s+)?on[:\s]+` + datePart),
}

// partyPattern matches case-caption phrasing, "Plaintiff v. Defendant".
var partyPattern = regexp.MustCompile(`(?i)([A-Z][A-Za-z\s,.&'-]+?)\s+v(?:s?\.?)\s+([A-Z][A-Za-z\s,.&'-]+?)(?:[\r\n]|$)`)

var partyLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)plaintiff[:\s]+([A-Z][A-Za-z\s,.&'-]+?)(?:[\r\n]|$)`),
	regexp.MustCompile(`(?i)defendant[:\s]+([A-Z][A-Za-z\s,.&'-]+?)(?:[\r\n]|$)`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Parser extracts foreclosure fields from document text.
type Parser struct{}

// New creates a foreclosure parser.
func New() *Parser { return &Parser{} }

// Category returns the foreclosure data category.
func (p *Parser) Category() domain.Category { return domain.CategoryForeclosure }

// InstrumentTypes returns nil: this parser is the fallback for every
// foreclosure-category instrument.
func (p *Parser) InstrumentTypes() []string { return nil }

// Parse extracts judgment amount, auction date, and case parties.
func (p *Parser) Parse(_ context.Context, text string) (domain.ParsedFields, error) {
	var fields domain.ParsedFields
	fields.JudgmentAmount = extractJudgment(text)
	fields.AuctionDate = extractAuctionDate(text)
	fields.Parties = extractParties(text)
	return fields, nil
}

func extractJudgment(text string) *float64 {
	for _, re := range judgmentPatterns {
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

func extractAuctionDate(text string) string {
	for _, re := range auctionDatePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if date, ok := normalise.ParseDate(strings.TrimSpace(m[1])); ok {
			return date
		}
	}
	return ""
}

func extractParties(text string) []string {
	if m := partyPattern.FindStringSubmatch(text); m != nil {
		return []string{cleanParty(m[1]), cleanParty(m[2])}
	}
	var parties []string
	for _, re := range partyLabelPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			parties = append(parties, cleanParty(m[1]))
		}
	}
	return parties
}

func cleanParty(raw string) string {
	return whitespaceRe.ReplaceAllString(strings.Trim(strings.TrimSpace(raw), ",."), " ")
}
