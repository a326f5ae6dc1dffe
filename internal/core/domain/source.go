package domain

import "fmt"

// AdapterKind identifies how a source's portal is driven.
type AdapterKind string

const (
	// AdapterStatefulForm is a session-bound web form (legacy ASP.NET style):
	// fetch a session page, extract hidden tokens, post the query form.
	AdapterStatefulForm AdapterKind = "stateful-form"

	// AdapterDirectQuery is a sessionless parameterised request
	// (tabular or API-like municipal sources).
	AdapterDirectQuery AdapterKind = "direct-query"
)

// Valid reports whether the adapter kind is one of the known variants.
func (k AdapterKind) Valid() bool {
	return k == AdapterStatefulForm || k == AdapterDirectQuery
}

// SearchMode describes how one query mode (owner, address, parcel) maps onto
// a portal's form. Field names on the right-hand side of Fields are the
// portal's actual input identifiers; keys are logical query fields such as
// "owner_last", "street_number", "parcel_id".
type SearchMode struct {
	// FormPath is the path of the search form relative to the base endpoint.
	// Empty means the source-level form path applies.
	FormPath string `toml:"form_path"`

	// Method is "GET" or "POST". Defaults to POST.
	Method string `toml:"method"`

	// Fields maps logical query fields to portal form-field identifiers.
	Fields map[string]string `toml:"fields"`

	// StaticFields are submitted verbatim with every query in this mode.
	StaticFields map[string]string `toml:"static_fields"`

	// SubmitField and SubmitValue name the submit button, when the portal
	// requires one to be present in the post body.
	SubmitField string `toml:"submit_field"`
	SubmitValue string `toml:"submit_value"`

	// EventTarget is the postback target used when no submit field is
	// configured (ASP.NET __EVENTTARGET).
	EventTarget string `toml:"event_target"`
}

// SourceConfig is the static description of one external portal.
// It is loaded once at startup and never mutated at runtime.
type SourceConfig struct {
	// ID is the unique source identifier (e.g., "essex-south").
	ID string `toml:"id"`

	// Name is the human-readable portal name.
	Name string `toml:"name"`

	// Kind selects the adapter variant.
	Kind AdapterKind `toml:"kind"`

	// BaseURL is the portal's base endpoint.
	BaseURL string `toml:"base_url"`

	// RequestsPerSecond is the per-source request budget shared by all
	// workers. Zero means the pipeline default applies.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// InstrumentTypes is the allow-list of instrument types to ingest.
	// Empty means all instrument types are accepted.
	InstrumentTypes []string `toml:"instrument_types"`

	// FormPath is the default search form path for stateful-form sources.
	FormPath string `toml:"form_path"`

	// Modes maps query mode ("owner", "address", "parcel") to form metadata.
	Modes map[string]SearchMode `toml:"modes"`

	// ResultsTableID is the DOM id of the results table, when known.
	ResultsTableID string `toml:"results_table_id"`

	// ResultsTableSelector is a CSS selector fallback for the results table.
	ResultsTableSelector string `toml:"results_table_selector"`

	// DocumentLinkSelector locates the document link within a result row.
	// Empty means the first anchor in the row.
	DocumentLinkSelector string `toml:"document_link_selector"`

	// SessionExpirySentinel is a substring whose presence in a response body
	// marks an expired session (e.g., "Session Expired", "timed out").
	SessionExpirySentinel string `toml:"session_expiry_sentinel"`

	// LoginPath is the login form path for portals that require
	// authentication before searching. Empty means no login.
	LoginPath string `toml:"login_path"`

	// MaxPages caps pagination per query to guard against malformed pages
	// that would otherwise loop forever. Zero means the pipeline default.
	MaxPages int `toml:"max_pages"`

	// NextPageSelector locates the "next page" link on a results page.
	NextPageSelector string `toml:"next_page_selector"`
}

// Validate checks the configuration for errors that must fail at startup,
// never at runtime per-unit.
func (c *SourceConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: source missing id", ErrInvalidConfig)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: source %s has unknown adapter kind %q", ErrInvalidConfig, c.ID, c.Kind)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: source %s missing base_url", ErrInvalidConfig, c.ID)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: source %s has negative request budget", ErrInvalidConfig, c.ID)
	}
	if len(c.Modes) == 0 {
		return fmt.Errorf("%w: source %s has no search modes", ErrInvalidConfig, c.ID)
	}
	for name, mode := range c.Modes {
		if name != "owner" && name != "address" && name != "parcel" {
			return fmt.Errorf("%w: source %s has unknown search mode %q", ErrInvalidConfig, c.ID, name)
		}
		if len(mode.Fields) == 0 && len(mode.StaticFields) == 0 {
			return fmt.Errorf("%w: source %s mode %s maps no fields", ErrInvalidConfig, c.ID, name)
		}
	}
	return nil
}

// AllowsInstrument reports whether the instrument type passes the
// source's allow-list.
func (c *SourceConfig) AllowsInstrument(instrumentType string) bool {
	if len(c.InstrumentTypes) == 0 {
		return true
	}
	for _, t := range c.InstrumentTypes {
		if t == instrumentType {
			return true
		}
	}
	return false
}

// Credentials hold a portal login for sources with a LoginPath.
type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}
