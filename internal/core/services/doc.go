// Package services implements the driving port interfaces. The ingest
// service orchestrates one unit of work end to end: freshness check, search,
// fetch, store, parse, merge, ledger update. Per-source rate limiting and
// transient-failure retry live here so adapters stay free of policy.
package services
