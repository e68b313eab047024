package driven

import "context"

// RunLease grants exclusive write access to a fingerprint store for the
// duration of one reconciliation run.
type RunLease interface {
	// Acquire takes the lease. When another run already holds it,
	// Acquire fails fast with domain.ErrRunInProgress instead of
	// blocking.
	Acquire(ctx context.Context) error

	// Release gives the lease back. Safe to call after a failed Acquire.
	Release() error
}
