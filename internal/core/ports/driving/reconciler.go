// Package driving provides interfaces for primary/inbound adapters.
package driving

import (
	"context"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// RunState is the coarse phase of a reconciliation run.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateClassifying RunState = "classifying"
	StateCommitting  RunState = "committing"
	StateDone        RunState = "done"

	// StateEmbedding covers the whole document pipeline: embed and
	// index writes run concurrently per document, so there is no
	// run-level write phase to report separately.
	StateEmbedding RunState = "embedding"

	// StateFailed is absorbing and reachable only from unrecoverable
	// setup errors; per-document failures never transition here.
	StateFailed RunState = "failed"
)

// RunStatus is a point-in-time snapshot of run progress.
type RunStatus struct {
	State              RunState
	Running            bool
	DocumentsProcessed int
	ErrorCount         int
}

// Reconciler brings the vector index into agreement with the current
// source state.
type Reconciler interface {
	// Run executes one reconciliation run with the given configuration.
	// Setup errors return a nil report and a non-nil error with no state
	// mutated; per-document failures are accumulated in the report.
	Run(ctx context.Context, cfg domain.RunConfig) (*domain.RunReport, error)

	// Audit compares the fingerprint store against the index point ids
	// and returns human-readable consistency warnings. Read-only.
	Audit(ctx context.Context) ([]string, error)

	// Status reports progress of the active run, or an idle status.
	Status() RunStatus
}
