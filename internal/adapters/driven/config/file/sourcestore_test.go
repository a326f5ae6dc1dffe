package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/deedline/internal/core/domain"
)

const validMatrix = `
[[source]]
id = "essex-south"
name = "Essex South Registry"
kind = "stateful-form"
base_url = "https://registry.example.test"
requests_per_second = 0.5
instrument_types = ["MORTGAGE", "LIS PENDENS"]
form_path = "search.aspx"
results_table_id = "gvResults"
session_expiry_sentinel = "Session Expired"
max_pages = 10

[source.modes.owner]
submit_field = "btnSearch"
submit_value = "Search"

[source.modes.owner.fields]
owner_last = "txtLastName"
owner_first = "txtFirstName"

[source.modes.owner.static_fields]
ddlTown = "SALEM"

[[source]]
id = "salem-assessor"
name = "Salem Assessor"
kind = "direct-query"
base_url = "https://assessor.example.test"
form_path = "propertycard"

[source.modes.parcel.fields]
parcel_id = "pid"
`

func writeMatrix(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewSourceStore_LoadsMatrix(t *testing.T) {
	store, err := NewSourceStore(writeMatrix(t, validMatrix))
	require.NoError(t, err)

	cfg, err := store.Get("essex-south")
	require.NoError(t, err)

	assert.Equal(t, "Essex South Registry", cfg.Name)
	assert.Equal(t, domain.AdapterStatefulForm, cfg.Kind)
	assert.InDelta(t, 0.5, cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, []string{"MORTGAGE", "LIS PENDENS"}, cfg.InstrumentTypes)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, "Session Expired", cfg.SessionExpirySentinel)

	owner, ok := cfg.Modes["owner"]
	require.True(t, ok)
	assert.Equal(t, "txtLastName", owner.Fields["owner_last"])
	assert.Equal(t, "SALEM", owner.StaticFields["ddlTown"])
	assert.Equal(t, "btnSearch", owner.SubmitField)
}

func TestNewSourceStore_ListIsSortedByID(t *testing.T) {
	store, err := NewSourceStore(writeMatrix(t, validMatrix))
	require.NoError(t, err)

	sources := store.List()
	require.Len(t, sources, 2)
	assert.Equal(t, "essex-south", sources[0].ID)
	assert.Equal(t, "salem-assessor", sources[1].ID)
}

func TestNewSourceStore_UnknownSource(t *testing.T) {
	store, err := NewSourceStore(writeMatrix(t, validMatrix))
	require.NoError(t, err)

	_, err = store.Get("nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewSourceStore_FailsFastOnMalformedSource(t *testing.T) {
	tests := []struct {
		name   string
		matrix string
	}{
		{"missing id", `
[[source]]
name = "No ID"
kind = "direct-query"
base_url = "https://x.test"
[source.modes.parcel.fields]
parcel_id = "pid"
`},
		{"unknown kind", `
[[source]]
id = "x"
kind = "soap-rpc"
base_url = "https://x.test"
[source.modes.parcel.fields]
parcel_id = "pid"
`},
		{"no modes", `
[[source]]
id = "x"
kind = "direct-query"
base_url = "https://x.test"
`},
		{"unknown mode name", `
[[source]]
id = "x"
kind = "direct-query"
base_url = "https://x.test"
[source.modes.zipcode.fields]
zip = "zip"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSourceStore(writeMatrix(t, tt.matrix))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestNewSourceStore_DuplicateIDRejected(t *testing.T) {
	dup := `
[[source]]
id = "x"
kind = "direct-query"
base_url = "https://x.test"
[source.modes.parcel.fields]
parcel_id = "pid"

[[source]]
id = "x"
kind = "direct-query"
base_url = "https://y.test"
[source.modes.parcel.fields]
parcel_id = "pid"
`
	_, err := NewSourceStore(writeMatrix(t, dup))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestCredentialsStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")

	store, err := NewCredentialsStore(path)
	require.NoError(t, err)

	_, err = store.Credentials("essex-south")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Set("essex-south", domain.Credentials{
		Username: "clerk",
		Password: "hunter2",
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewCredentialsStore(path)
	require.NoError(t, err)
	creds, err := reopened.Credentials("essex-south")
	require.NoError(t, err)
	assert.Equal(t, "clerk", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
}
