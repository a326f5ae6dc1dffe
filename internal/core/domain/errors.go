package domain

import "errors"

// Domain errors represent pipeline failures distinct from plain
// infrastructure errors, so callers can branch on the failure class.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates a malformed source configuration.
	// Configuration errors fail at startup, never at runtime per-unit.
	ErrInvalidConfig = errors.New("invalid source configuration")

	// ErrEmptyQuery indicates a search query with no active field.
	ErrEmptyQuery = errors.New("search query has no active field")

	// ErrUnsupportedKind indicates an unknown adapter kind.
	ErrUnsupportedKind = errors.New("unsupported adapter kind")

	// ErrSessionExpired indicates the portal invalidated the adapter's
	// session mid-sequence. Eligible for exactly one re-login.
	ErrSessionExpired = errors.New("portal session expired")

	// ErrUnparseableResponse indicates a response that is neither a results
	// page nor a valid empty result. Eligible for retry.
	ErrUnparseableResponse = errors.New("unparseable portal response")

	// ErrTransport indicates an HTTP-level failure (timeout, 5xx, refused
	// connection). Eligible for retry with backoff.
	ErrTransport = errors.New("transport failure")

	// ErrAuthRequired indicates the source needs stored credentials and
	// none are configured.
	ErrAuthRequired = errors.New("credentials required")

	// ErrPageCapExceeded indicates pagination hit the per-query cap,
	// guarding against infinite-loop responses from malformed pages.
	ErrPageCapExceeded = errors.New("pagination cap exceeded")

	// ErrNoTextExtracted indicates neither the text layer nor OCR yielded
	// usable text. The artifact is retained for future re-parsing.
	ErrNoTextExtracted = errors.New("no text extracted from document")
)

// Transient reports whether an error is a session/transport failure worth
// retrying with backoff. Everything else is terminal for the attempt.
func Transient(err error) bool {
	return errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrUnparseableResponse) ||
		errors.Is(err, ErrTransport)
}
