// Package sqlite persists the freshness ledger, normalised records, and
// provenance in a single SQLite database. The schema is managed through
// embedded SQL migrations applied at open.
package sqlite
