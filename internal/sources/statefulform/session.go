package statefulform

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/logger"
)

// searchSession runs one query sequence: form fetch, submit, and exhaustive
// pagination up to the page cap. It exists so the adapter can retry the
// whole sequence once after a mid-sequence session expiry.
type searchSession struct {
	adapter *Adapter
}

// run executes the sequence and returns every reference across all pages.
func (s *searchSession) run(ctx context.Context, mode domain.SearchMode, query domain.SearchQuery) ([]domain.DocumentReference, error) {
	a := s.adapter

	formPath := mode.FormPath
	if formPath == "" {
		formPath = a.cfg.FormPath
	}
	formURL := a.buildURL(formPath)

	body, _, err := a.get(ctx, formURL)
	if err != nil {
		return nil, err
	}
	if a.expired(body) {
		return nil, domain.ErrSessionExpired
	}
	formDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: search form: %v", domain.ErrUnparseableResponse, err)
	}

	payload := buildPayload(formDoc, mode, query)

	method := strings.ToUpper(mode.Method)
	var page []byte
	if method == http.MethodGet {
		page, _, err = a.get(ctx, formURL+"?"+payload.Encode())
	} else {
		page, _, err = a.postForm(ctx, formURL, payload)
	}
	if err != nil {
		return nil, err
	}

	maxPages := a.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var refs []domain.DocumentReference
	for pageNum := 1; ; pageNum++ {
		if a.expired(page) {
			return nil, domain.ErrSessionExpired
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
		if err != nil {
			return nil, fmt.Errorf("%w: results page %d: %v", domain.ErrUnparseableResponse, pageNum, err)
		}

		pageRefs := parseResults(doc, a.cfg)
		refs = append(refs, resolveFetchURLs(pageRefs, a)...)
		logger.Debug("%s: page %d yielded %d reference(s)", a.cfg.ID, pageNum, len(pageRefs))

		next := nextPageLink(doc, a.cfg.NextPageSelector)
		if next == "" {
			break
		}
		if pageNum >= maxPages {
			return nil, fmt.Errorf("%w: source %s after %d pages", domain.ErrPageCapExceeded, a.cfg.ID, pageNum)
		}

		if target, argument, ok := parsePostBack(next); ok {
			postback := hiddenFields(doc)
			for name, value := range mode.StaticFields {
				postback.Set(name, value)
			}
			postback.Set("__EVENTTARGET", target)
			postback.Set("__EVENTARGUMENT", argument)
			page, _, err = a.postForm(ctx, formURL, postback)
		} else {
			page, _, err = a.get(ctx, a.buildURL(next))
		}
		if err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// nextPageLink returns the href of the next-page anchor, or empty when the
// last page has been reached. No selector means no pagination.
func nextPageLink(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	link := doc.Find(selector).First()
	if link.Length() == 0 {
		return ""
	}
	href, _ := link.Attr("href")
	return strings.TrimSpace(href)
}

// resolveFetchURLs rewrites relative document links against the base
// endpoint and stamps the source id.
func resolveFetchURLs(refs []domain.DocumentReference, a *Adapter) []domain.DocumentReference {
	for i := range refs {
		refs[i].SourceID = a.cfg.ID
		if refs[i].FetchURL != "" {
			refs[i].FetchURL = a.buildURL(refs[i].FetchURL)
		}
	}
	return refs
}
