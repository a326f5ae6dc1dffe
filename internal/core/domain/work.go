package domain

import "fmt"

// UnitState is the lifecycle state of one scheduled unit of work.
type UnitState int

const (
	// UnitPending means the unit is queued and has not started.
	UnitPending UnitState = iota

	// UnitRunning means a worker is executing the unit.
	UnitRunning

	// UnitSucceeded is terminal: the unit completed, including valid
	// zero-result outcomes.
	UnitSucceeded

	// UnitFailed is terminal: retries were exhausted.
	UnitFailed

	// UnitSkipped is terminal: the freshness ledger reported the pair not
	// due. A skipped unit consumes none of the source's request budget.
	UnitSkipped
)

// String returns the state name for logs and status output.
func (s UnitState) String() string {
	switch s {
	case UnitPending:
		return "pending"
	case UnitRunning:
		return "running"
	case UnitSucceeded:
		return "succeeded"
	case UnitFailed:
		return "failed"
	case UnitSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s UnitState) Terminal() bool {
	return s == UnitSucceeded || s == UnitFailed || s == UnitSkipped
}

// WorkUnit is one scheduled ingestion: a query against one source.
type WorkUnit struct {
	// SourceID identifies the source adapter to invoke.
	SourceID string

	// Query is the search to run.
	Query SearchQuery

	// ParcelKey is the canonical key when known up front (parcel-mode
	// queries); otherwise derived from results during ingestion.
	ParcelKey string

	// State is the unit's lifecycle state.
	State UnitState

	// Attempts counts executions including retries.
	Attempts int

	// Err holds the terminal error for failed units.
	Err error
}
