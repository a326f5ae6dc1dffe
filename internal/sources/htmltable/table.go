// Package htmltable maps portal results tables onto document references.
// Portals disagree on header spellings and table markup; a small alias
// table and a few location fallbacks absorb the differences so both
// adapter variants share one parser.
package htmltable

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// Options locate the results table and its document links within a page.
type Options struct {
	// TableID is the DOM id of the results table, when known.
	TableID string

	// TableSelector is a CSS selector fallback.
	TableSelector string

	// LinkSelector locates the document link within a result row.
	// Empty means the first anchor.
	LinkSelector string
}

// columnAliases map heterogeneous header spellings onto the reference
// schema. Headers are compared lowercased with collapsed whitespace.
var columnAliases = map[string][]string{
	"document_number": {"document number", "doc #", "doc number", "document"},
	"instrument_type": {"document type", "doc type", "type"},
	"recording_date":  {"recording date", "rec date", "date"},
	"book":            {"book"},
	"page":            {"page"},
	"party1":          {"party 1", "party1", "grantor"},
	"party2":          {"party 2", "party2", "grantee"},
}

// Parse extracts document references from the results table. A page with no
// results table is a valid empty result, not an error: portals render
// "no records found" prose instead of an empty table.
func Parse(doc *goquery.Document, opts Options) []domain.DocumentReference {
	table := locate(doc, opts)
	if table == nil {
		return nil
	}

	headers, headerRowIdx := headerMap(table)
	if len(headers) == 0 {
		return nil
	}

	var refs []domain.DocumentReference
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == headerRowIdx {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		ref := fromRow(cells, headers)
		ref.FetchURL = documentLink(row, opts.LinkSelector)
		if ref.InstrumentType == "" && ref.DocumentNumber == "" && ref.FetchURL == "" {
			return
		}
		refs = append(refs, ref)
	})
	return refs
}

// locate finds the results table by id, then selector, then the first
// table on the page.
func locate(doc *goquery.Document, opts Options) *goquery.Selection {
	if opts.TableID != "" {
		if t := doc.Find("table#" + opts.TableID).First(); t.Length() > 0 {
			return t
		}
	}
	if opts.TableSelector != "" {
		if t := doc.Find(opts.TableSelector).First(); t.Length() > 0 {
			return t
		}
	}
	if t := doc.Find("table").First(); t.Length() > 0 {
		return t
	}
	return nil
}

// headerMap indexes columns by normalised header text. Deployments without
// <th> cells use the first row's <td> cells as the header; the returned row
// index marks that row so it is not parsed as a result.
func headerMap(table *goquery.Selection) (map[string]int, int) {
	headers := make(map[string]int)
	headerRowIdx := -1

	cells := table.Find("th")
	if cells.Length() == 0 {
		cells = table.Find("tr").First().Find("td")
		headerRowIdx = 0
	}
	cells.Each(func(i int, cell *goquery.Selection) {
		if key := normaliseHeader(cell.Text()); key != "" {
			headers[key] = i
		}
	})
	return headers, headerRowIdx
}

func normaliseHeader(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// fromRow maps row cells onto the reference schema through the aliases.
func fromRow(cells *goquery.Selection, headers map[string]int) domain.DocumentReference {
	text := func(key string) string {
		idx, ok := columnIndex(headers, key)
		if !ok || idx >= cells.Length() {
			return ""
		}
		return strings.Join(strings.Fields(cells.Eq(idx).Text()), " ")
	}

	return domain.DocumentReference{
		DocumentNumber: text("document_number"),
		InstrumentType: strings.ToUpper(text("instrument_type")),
		RecordingDate:  text("recording_date"),
		Book:           text("book"),
		Page:           text("page"),
		Party1:         text("party1"),
		Party2:         text("party2"),
	}
}

// columnIndex resolves a schema key to a column, trying the key itself and
// then its aliases.
func columnIndex(headers map[string]int, key string) (int, bool) {
	if idx, ok := headers[strings.ReplaceAll(key, "_", " ")]; ok {
		return idx, true
	}
	for _, alias := range columnAliases[key] {
		if idx, ok := headers[alias]; ok {
			return idx, true
		}
	}
	return 0, false
}

// documentLink extracts the fetch URL from a result row. Postback
// javascript pseudo-links are not fetchable and yield nothing.
func documentLink(row *goquery.Selection, selector string) string {
	if selector == "" {
		selector = "a"
	}
	link := row.Find(selector).First()
	if link.Length() == 0 {
		return ""
	}
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	return href
}
