package htmltable

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParse_AliasedHeaders(t *testing.T) {
	doc := parseHTML(t, `<table id="results">
<tr><th>Doc #</th><th>Type</th><th>Rec Date</th><th>Grantor</th></tr>
<tr><td><a href="view?d=77">77</a></td><td>Lis Pendens</td><td>5/2/2024</td><td>SHORELINE BANK</td></tr>
</table>`)

	refs := Parse(doc, Options{TableID: "results"})
	require.Len(t, refs, 1)

	assert.Equal(t, "77", refs[0].DocumentNumber)
	assert.Equal(t, "LIS PENDENS", refs[0].InstrumentType)
	assert.Equal(t, "5/2/2024", refs[0].RecordingDate)
	assert.Equal(t, "SHORELINE BANK", refs[0].Party1)
	assert.Equal(t, "view?d=77", refs[0].FetchURL)
}

func TestParse_FirstRowCellsAsHeader(t *testing.T) {
	doc := parseHTML(t, `<table>
<tr><td>Document Number</td><td>Document Type</td></tr>
<tr><td>2024-001</td><td>Mortgage</td></tr>
</table>`)

	refs := Parse(doc, Options{})
	require.Len(t, refs, 1, "the header row must not parse as a result")
	assert.Equal(t, "2024-001", refs[0].DocumentNumber)
	assert.Equal(t, "MORTGAGE", refs[0].InstrumentType)
}

func TestParse_SelectorFallback(t *testing.T) {
	doc := parseHTML(t, `<div class="grid"><table class="hits">
<tr><th>Doc #</th><th>Type</th></tr>
<tr><td>5</td><td>Deed</td></tr>
</table></div>`)

	refs := Parse(doc, Options{TableID: "missing", TableSelector: "table.hits"})
	require.Len(t, refs, 1)
	assert.Equal(t, "5", refs[0].DocumentNumber)
}

func TestParse_NoTableMeansEmpty(t *testing.T) {
	doc := parseHTML(t, `<p>No records found.</p>`)
	assert.Empty(t, Parse(doc, Options{}))
}

func TestParse_PostbackLinksAreNotFetchURLs(t *testing.T) {
	doc := parseHTML(t, `<table>
<tr><th>Doc #</th><th>Type</th></tr>
<tr><td><a href="javascript:__doPostBack('grid','view$0')">9</a></td><td>Mortgage</td></tr>
</table>`)

	refs := Parse(doc, Options{})
	require.Len(t, refs, 1)
	assert.Empty(t, refs[0].FetchURL)
}

func TestParse_RowsMissingEveryFieldAreDropped(t *testing.T) {
	doc := parseHTML(t, `<table>
<tr><th>Doc #</th><th>Type</th></tr>
<tr><td></td><td></td></tr>
<tr><td>10</td><td>Mortgage</td></tr>
</table>`)

	refs := Parse(doc, Options{})
	require.Len(t, refs, 1)
	assert.Equal(t, "10", refs[0].DocumentNumber)
}
