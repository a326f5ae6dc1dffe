package statefulform

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/sources/htmltable"
)

// parseResults maps the results page onto document references using the
// source's table hints.
func parseResults(doc *goquery.Document, cfg domain.SourceConfig) []domain.DocumentReference {
	return htmltable.Parse(doc, htmltable.Options{
		TableID:       cfg.ResultsTableID,
		TableSelector: cfg.ResultsTableSelector,
		LinkSelector:  cfg.DocumentLinkSelector,
	})
}
