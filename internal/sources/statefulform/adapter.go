// Package statefulform drives legacy session-bound portal search forms.
//
// The protocol is the ASP.NET postback dance: fetch the search page, carry
// every hidden input (view state, event validation) into the post body, add
// the mode's query fields, and submit. Results come back as an HTML table
// whose headers vary by deployment; column aliases map them onto one
// reference schema. Expired sessions are detected by a configured sentinel
// substring and recovered exactly once per operation: login-bearing portals
// re-log-in, anonymous portals start a fresh session.
package statefulform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/logger"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxPages caps pagination when the source config does not.
	DefaultMaxPages = 20

	// userAgent identifies the pipeline to portal operators.
	userAgent = "deedline/1.0 (property-records ingestion)"
)

// Adapter drives one stateful-form portal.
type Adapter struct {
	cfg    domain.SourceConfig
	client *http.Client
	limit  driven.Waiter
	creds  driven.CredentialsProvider
}

// New creates an adapter for a stateful-form source. The Waiter gates every
// outbound request, document downloads included. The credentials provider
// may be nil for sources without a login path.
func New(cfg domain.SourceConfig, limit driven.Waiter, creds driven.CredentialsProvider) (*Adapter, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Adapter{
		cfg: cfg,
		client: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
		limit: limit,
		creds: creds,
	}, nil
}

// SourceID returns the configured source id.
func (a *Adapter) SourceID() string {
	return a.cfg.ID
}

// Search runs one query across every results page. A session expiry during
// the sequence triggers one recovery and a rerun of the search: a re-login
// where the source has one, otherwise a fresh session (the rerun's form
// fetch re-establishes it). A second expiry fails the search.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery) ([]domain.DocumentReference, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	mode, err := a.selectMode(query)
	if err != nil {
		return nil, err
	}

	if a.cfg.LoginPath != "" {
		if err := a.login(ctx); err != nil {
			return nil, err
		}
	}

	session := &searchSession{adapter: a}
	refs, err := session.run(ctx, mode, query)
	if errors.Is(err, domain.ErrSessionExpired) {
		if a.cfg.LoginPath != "" {
			logger.Debug("session expired on %s, re-logging-in once", a.cfg.ID)
			if loginErr := a.login(ctx); loginErr != nil {
				return nil, loginErr
			}
		} else {
			logger.Debug("session expired on %s, starting a fresh session", a.cfg.ID)
		}
		refs, err = session.run(ctx, mode, query)
	}
	if err != nil {
		return nil, err
	}
	return a.filterInstruments(refs), nil
}

// Fetch downloads the document behind a reference. The content type is
// sniffed from the response when the portal reports a generic one.
func (a *Adapter) Fetch(ctx context.Context, ref domain.DocumentReference) (*domain.RawArtifact, error) {
	if ref.FetchURL == "" {
		return nil, fmt.Errorf("%w: reference %s has no fetch url", domain.ErrNotFound, ref.IndexKey())
	}

	body, contentType, err := a.get(ctx, ref.FetchURL)
	if err != nil {
		return nil, err
	}
	if a.expired(body) {
		return nil, domain.ErrSessionExpired
	}

	return &domain.RawArtifact{
		SourceID:    a.cfg.ID,
		IndexKey:    ref.IndexKey(),
		ContentType: sniffContentType(contentType, body),
		Content:     body,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// selectMode picks the configured search mode for the query, preferring an
// exact mode match and falling back to any mode that maps the query's
// logical fields.
func (a *Adapter) selectMode(query domain.SearchQuery) (domain.SearchMode, error) {
	if mode, ok := a.cfg.Modes[string(query.Mode)]; ok {
		return mode, nil
	}
	for _, mode := range a.cfg.Modes {
		return mode, nil
	}
	return domain.SearchMode{}, fmt.Errorf("%w: source %s has no search modes", domain.ErrInvalidConfig, a.cfg.ID)
}

// filterInstruments applies the source's instrument-type allow-list.
func (a *Adapter) filterInstruments(refs []domain.DocumentReference) []domain.DocumentReference {
	if len(a.cfg.InstrumentTypes) == 0 {
		return refs
	}
	kept := refs[:0]
	for _, ref := range refs {
		if a.cfg.AllowsInstrument(ref.InstrumentType) {
			kept = append(kept, ref)
		}
	}
	return kept
}

// expired reports whether a response body carries the session-expiry
// sentinel.
func (a *Adapter) expired(body []byte) bool {
	return a.cfg.SessionExpirySentinel != "" &&
		strings.Contains(string(body), a.cfg.SessionExpirySentinel)
}

// get performs a rate-limited GET and returns body plus content type.
func (a *Adapter) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := a.limit.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return a.do(req)
}

// postForm performs a rate-limited form POST.
func (a *Adapter) postForm(ctx context.Context, rawURL string, payload url.Values) ([]byte, string, error) {
	if err := a.limit.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *Adapter) do(req *http.Request) ([]byte, string, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", domain.ErrTransport, req.URL, err)
	}
	if resp.StatusCode >= 500 {
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrTransport, req.URL, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrUnparseableResponse, req.URL, resp.StatusCode)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// buildURL resolves a path against the source's base endpoint. Absolute
// URLs pass through untouched.
func (a *Adapter) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimSuffix(a.cfg.BaseURL, "/")
	return base + "/" + strings.TrimPrefix(path, "/")
}

// login posts stored credentials to the source's login form, carrying the
// form's hidden tokens the same way a search post does.
func (a *Adapter) login(ctx context.Context) error {
	if a.creds == nil {
		return fmt.Errorf("%w: source %s", domain.ErrAuthRequired, a.cfg.ID)
	}
	creds, err := a.creds.Credentials(a.cfg.ID)
	if err != nil {
		return fmt.Errorf("%w: source %s: %v", domain.ErrAuthRequired, a.cfg.ID, err)
	}

	loginURL := a.buildURL(a.cfg.LoginPath)
	body, _, err := a.get(ctx, loginURL)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: login page: %v", domain.ErrUnparseableResponse, err)
	}

	payload := hiddenFields(doc)
	setCredentialFields(doc, payload, creds)

	if _, _, err := a.postForm(ctx, loginURL, payload); err != nil {
		return err
	}
	logger.Debug("logged in to %s", a.cfg.ID)
	return nil
}

// sniffContentType prefers the reported type and falls back to magic-byte
// sniffing for the generic types registries are fond of.
func sniffContentType(reported string, body []byte) string {
	reported = strings.ToLower(strings.TrimSpace(reported))
	if i := strings.Index(reported, ";"); i >= 0 {
		reported = strings.TrimSpace(reported[:i])
	}
	switch reported {
	case "application/pdf", "image/tiff", "image/png", "image/jpeg", "text/html":
		return reported
	}
	switch {
	case len(body) >= 4 && string(body[:4]) == "%PDF":
		return "application/pdf"
	case len(body) >= 2 && (string(body[:2]) == "II" || string(body[:2]) == "MM"):
		return "image/tiff"
	case len(body) >= 8 && string(body[1:4]) == "PNG":
		return "image/png"
	}
	if reported != "" {
		return reported
	}
	return "application/octet-stream"
}
