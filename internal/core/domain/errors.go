package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRunInProgress indicates another run holds the store lease.
	// A second run fails fast rather than blocking.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrInvalidConfig indicates a malformed run configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnchunkable indicates content that cannot be split into chunks.
	// This is a permanent per-document failure, never retried.
	ErrUnchunkable = errors.New("content cannot be chunked")

	// ErrSourceUnavailable indicates the source adapter failed before
	// any document was processed.
	ErrSourceUnavailable = errors.New("source unavailable")
)
