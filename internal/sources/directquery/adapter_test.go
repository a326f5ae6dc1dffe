package directquery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/deedline/internal/core/domain"
)

type countingWaiter struct {
	waits atomic.Int64
}

func (w *countingWaiter) Wait(context.Context) error {
	w.waits.Add(1)
	return nil
}

func testConfig(baseURL string) domain.SourceConfig {
	return domain.SourceConfig{
		ID:       "salem-assessor",
		Name:     "Salem Assessor",
		Kind:     domain.AdapterDirectQuery,
		BaseURL:  baseURL,
		FormPath: "propertycard",
		Modes: map[string]domain.SearchMode{
			"parcel": {
				Fields:       map[string]string{"parcel_id": "pid"},
				StaticFields: map[string]string{"format": "html"},
			},
		},
	}
}

func parcelQuery() domain.SearchQuery {
	return domain.SearchQuery{Mode: domain.QueryByParcel, ParcelID: "042-017-003"}
}

func TestSearch_BuildsParameterisedURL(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>Total Assessed Value: $475,500</p></body></html>")
	}))
	defer srv.Close()

	waiter := &countingWaiter{}
	a := New(testConfig(srv.URL), waiter)
	defer a.Close()

	refs, err := a.Search(context.Background(), parcelQuery())
	require.NoError(t, err)

	assert.Equal(t, "042-017-003", gotQuery["pid"])
	assert.Equal(t, "html", gotQuery["format"])
	require.Len(t, refs, 1)
	assert.Equal(t, "ASSESSMENT", refs[0].InstrumentType)
	assert.Equal(t, int64(1), waiter.waits.Load())
}

func TestSearch_HitTableYieldsReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><table>
<tr><th>Doc #</th><th>Type</th><th>Rec Date</th></tr>
<tr><td><a href="card?pid=1">A-1</a></td><td>Tax Lien</td><td>1/5/2024</td></tr>
<tr><td><a href="card?pid=2">A-2</a></td><td></td><td>2/6/2024</td></tr>
</table></body></html>`)
	}))
	defer srv.Close()

	a := New(testConfig(srv.URL), &countingWaiter{})
	defer a.Close()

	refs, err := a.Search(context.Background(), parcelQuery())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "TAX LIEN", refs[0].InstrumentType)
	assert.Equal(t, srv.URL+"/card?pid=1", refs[0].FetchURL)
	assert.Equal(t, "salem-assessor", refs[0].SourceID)
	assert.Equal(t, "ASSESSMENT", refs[1].InstrumentType, "untyped rows default to assessment")
}

func TestSearch_PropertyCardBecomesSingleReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
<h1>Property Record Card</h1>
<p>Land Value: $185,000</p><p>Building Value: $290,500</p>
</body></html>`)
	}))
	defer srv.Close()

	a := New(testConfig(srv.URL), &countingWaiter{})
	defer a.Close()

	refs, err := a.Search(context.Background(), parcelQuery())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "ASSESSMENT", refs[0].InstrumentType)
	assert.Contains(t, refs[0].FetchURL, "pid=042-017-003")
}

func TestSearch_NoRecordsPageIsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>No parcels matched your search.</p></body></html>")
	}))
	defer srv.Close()

	a := New(testConfig(srv.URL), &countingWaiter{})
	defer a.Close()

	refs, err := a.Search(context.Background(), parcelQuery())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSearch_CSVExportIsSingleDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "parcel,assessed_total\n042-017-003,475500\n")
	}))
	defer srv.Close()

	a := New(testConfig(srv.URL), &countingWaiter{})
	defer a.Close()

	refs, err := a.Search(context.Background(), parcelQuery())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "ASSESSMENT", refs[0].InstrumentType)
}

func TestFetch_DownloadsReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>card</body></html>")
	}))
	defer srv.Close()

	waiter := &countingWaiter{}
	a := New(testConfig(srv.URL), waiter)
	defer a.Close()

	ref := domain.DocumentReference{DocumentNumber: "A-1", FetchURL: srv.URL + "/card?pid=1"}
	artifact, err := a.Fetch(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, "text/html", artifact.ContentType)
	assert.Equal(t, "A-1", artifact.IndexKey)
	assert.Equal(t, "salem-assessor", artifact.SourceID)
	assert.Equal(t, int64(1), waiter.waits.Load(), "downloads are rate gated")
}

func TestSearch_ServerErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := New(testConfig(srv.URL), &countingWaiter{})
	defer a.Close()

	_, err := a.Search(context.Background(), parcelQuery())
	assert.ErrorIs(t, err, domain.ErrTransport)
}
