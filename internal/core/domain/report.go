package domain

import "time"

// ErrorKind classifies a per-document or run-level failure.
type ErrorKind string

const (
	// ErrorKindSetup marks fatal pre-run failures (source unreachable,
	// store unopenable, lease unobtainable). No mutation has happened.
	ErrorKindSetup ErrorKind = "setup"

	// ErrorKindTransient marks failures that were retried with backoff
	// and exhausted their attempts (embedding timeout, index write).
	ErrorKindTransient ErrorKind = "transient"

	// ErrorKindPermanent marks failures that are never retried
	// (content that cannot be chunked).
	ErrorKindPermanent ErrorKind = "permanent"

	// ErrorKindConsistency marks store/index disagreements found by the
	// audit path. Surfaced as warnings, never as run failures.
	ErrorKindConsistency ErrorKind = "consistency"
)

// DocumentError records one document's failure within a run.
type DocumentError struct {
	DocID   string
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e DocumentError) Error() string {
	return string(e.Kind) + " error for " + e.DocID + ": " + e.Message
}

// Outcome is the caller-visible result of a run.
type Outcome string

const (
	// OutcomeSucceeded means every classified document was processed.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeSucceededWithFailures means the run completed but some
	// documents failed and are listed in the report.
	OutcomeSucceededWithFailures Outcome = "succeeded_with_failures"
)

// RunReport is the only externally visible artifact of a reconciliation
// run besides index and store mutations.
type RunReport struct {
	// RunID uniquely identifies this run.
	RunID string

	// Mode is the resolved run mode.
	Mode RunMode

	// Counts per change category. Failed documents are counted in
	// Failed, not in their original category.
	New       int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int

	// Failures lists every per-document error by id and kind.
	Failures []DocumentError

	// Warnings carries non-fatal findings (skipped deletion detection,
	// consistency audit results).
	Warnings []string

	// Duration is the total wall time of the run.
	Duration time.Duration

	// Truncated is true when the run was cancelled or hit its soft
	// deadline before processing every document.
	Truncated bool
}

// Outcome derives the caller-visible result from the failure list.
func (r *RunReport) Outcome() Outcome {
	if len(r.Failures) > 0 {
		return OutcomeSucceededWithFailures
	}
	return OutcomeSucceeded
}
