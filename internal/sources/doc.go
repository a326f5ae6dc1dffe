// Package sources contains the adapter variants that drive external
// portals. The set of variants is closed: stateful-form for session-bound
// web forms and direct-query for parameterised tabular endpoints. New
// sources are onboarded through configuration, not new adapter types.
package sources
