// Package domain contains the core types of the ingestion pipeline:
// source configuration, search queries, document references, raw
// artifacts, parsed fields, normalised records, and the freshness
// ledger entries that drive re-fetch scheduling.
package domain
