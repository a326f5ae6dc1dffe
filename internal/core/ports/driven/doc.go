// Package driven defines the interfaces the pipeline core depends on:
// source adapters, artifact storage, document parsing, the freshness
// ledger, and record persistence. Implementations live under
// internal/sources, internal/parsers and internal/adapters/driven.
package driven
