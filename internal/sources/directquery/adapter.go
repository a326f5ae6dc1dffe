// Package directquery drives sessionless tabular portals: assessor sites
// and municipal exports that answer a parameterised GET without any form
// state. Results pages carry either a hit table mapped through the shared
// table parser, or a single property card, which is treated as one
// self-referencing assessment document.
package directquery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/logger"
	"github.com/parcelworks/deedline/internal/sources/htmltable"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 60 * time.Second

const userAgent = "deedline/1.0 (property-records ingestion)"

// Adapter drives one direct-query portal.
type Adapter struct {
	cfg    domain.SourceConfig
	client *http.Client
	limit  driven.Waiter
}

// New creates an adapter for a direct-query source. The Waiter gates every
// outbound request.
func New(cfg domain.SourceConfig, limit driven.Waiter) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: DefaultTimeout},
		limit:  limit,
	}
}

// SourceID returns the configured source id.
func (a *Adapter) SourceID() string {
	return a.cfg.ID
}

// Search issues one parameterised GET and maps the response onto document
// references. A page without a hit table yields the page itself as a single
// assessment reference, so property cards flow through the same fetch,
// store, and parse pipeline as recorded instruments.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery) ([]domain.DocumentReference, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	mode, err := a.selectMode(query)
	if err != nil {
		return nil, err
	}

	queryURL := a.queryURL(mode, query)
	body, contentType, err := a.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(strings.ToLower(contentType), "html") {
		// Non-HTML answers (CSV exports) are a single document.
		return []domain.DocumentReference{{
			SourceID:       a.cfg.ID,
			InstrumentType: "ASSESSMENT",
			FetchURL:       queryURL,
		}}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: results page: %v", domain.ErrUnparseableResponse, err)
	}

	refs := htmltable.Parse(doc, htmltable.Options{
		TableID:       a.cfg.ResultsTableID,
		TableSelector: a.cfg.ResultsTableSelector,
		LinkSelector:  a.cfg.DocumentLinkSelector,
	})
	if len(refs) == 0 {
		if !a.looksLikeCard(doc) {
			return nil, nil
		}
		logger.Debug("%s: treating response as a property card", a.cfg.ID)
		return []domain.DocumentReference{{
			SourceID:       a.cfg.ID,
			InstrumentType: "ASSESSMENT",
			FetchURL:       queryURL,
		}}, nil
	}

	for i := range refs {
		refs[i].SourceID = a.cfg.ID
		if refs[i].InstrumentType == "" {
			refs[i].InstrumentType = "ASSESSMENT"
		}
		if refs[i].FetchURL != "" {
			refs[i].FetchURL = a.buildURL(refs[i].FetchURL)
		}
	}
	return refs, nil
}

// Fetch downloads the document behind a reference.
func (a *Adapter) Fetch(ctx context.Context, ref domain.DocumentReference) (*domain.RawArtifact, error) {
	if ref.FetchURL == "" {
		return nil, fmt.Errorf("%w: reference %s has no fetch url", domain.ErrNotFound, ref.IndexKey())
	}

	body, contentType, err := a.get(ctx, ref.FetchURL)
	if err != nil {
		return nil, err
	}

	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if contentType == "" {
		contentType = "text/html"
	}

	return &domain.RawArtifact{
		SourceID:    a.cfg.ID,
		IndexKey:    ref.IndexKey(),
		ContentType: contentType,
		Content:     body,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// Close is a no-op beyond releasing idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

func (a *Adapter) selectMode(query domain.SearchQuery) (domain.SearchMode, error) {
	if mode, ok := a.cfg.Modes[string(query.Mode)]; ok {
		return mode, nil
	}
	for _, mode := range a.cfg.Modes {
		return mode, nil
	}
	return domain.SearchMode{}, fmt.Errorf("%w: source %s has no search modes", domain.ErrInvalidConfig, a.cfg.ID)
}

// queryURL builds the parameterised request URL for a mode and query.
func (a *Adapter) queryURL(mode domain.SearchMode, query domain.SearchQuery) string {
	params := url.Values{}
	for name, value := range mode.StaticFields {
		params.Set(name, value)
	}
	for logical, param := range mode.Fields {
		if value := fieldValue(logical, query); value != "" {
			params.Set(param, value)
		}
	}

	path := mode.FormPath
	if path == "" {
		path = a.cfg.FormPath
	}
	return a.buildURL(path) + "?" + params.Encode()
}

func fieldValue(logical string, query domain.SearchQuery) string {
	switch logical {
	case "owner":
		return query.Owner
	case "owner_last":
		return domain.SplitOwner(query.Owner).Last
	case "owner_first":
		return domain.SplitOwner(query.Owner).First
	case "address":
		return query.Address
	case "street_number":
		return domain.SplitAddress(query.Address).Number
	case "street_name":
		return domain.SplitAddress(query.Address).Street
	case "parcel_id":
		return query.ParcelID
	}
	return ""
}

// looksLikeCard reports whether a tableless page carries assessment data
// worth retaining, as opposed to a "no records" page.
func (a *Adapter) looksLikeCard(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Text())
	for _, marker := range []string{"assessed", "assessment", "land value", "building value", "total value"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (a *Adapter) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := a.limit.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: GET %s: %v", domain.ErrTransport, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", domain.ErrTransport, rawURL, err)
	}
	if resp.StatusCode >= 500 {
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrTransport, rawURL, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrUnparseableResponse, rawURL, resp.StatusCode)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (a *Adapter) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimSuffix(a.cfg.BaseURL, "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimPrefix(path, "/")
}
