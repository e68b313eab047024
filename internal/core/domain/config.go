package domain

import (
	"fmt"
	"time"
)

// RunMode selects which change categories a reconciliation run acts on.
type RunMode string

const (
	// ModeFull enumerates the whole source and processes every category,
	// including deletions.
	ModeFull RunMode = "full"

	// ModeNewOnly indexes documents with no fingerprint record.
	ModeNewOnly RunMode = "new_only"

	// ModeNewAndUpdated indexes new and changed documents, no deletions.
	ModeNewAndUpdated RunMode = "new_and_updated"

	// ModeDeltaSince scopes the source enumeration to documents changed
	// since DeltaSince. Deletion detection is not possible in this mode.
	ModeDeltaSince RunMode = "delta_since"
)

// Default configuration values.
const (
	DefaultBatchSize        = 32
	DefaultEmbedConcurrency = 4
	DefaultWriteConcurrency = 2
	DefaultMaxRetries       = 3
	DefaultRetryBaseDelay   = 500 * time.Millisecond
	DefaultRetryMaxDelay    = 30 * time.Second
	DefaultRequestTimeout   = 30 * time.Second
)

// RunConfig is the explicit configuration object passed to the
// reconciler at run start.
type RunConfig struct {
	// Mode is the run mode (default: full).
	Mode RunMode

	// DeltaSince is required when Mode is ModeDeltaSince.
	DeltaSince *time.Time

	// BatchSize is the maximum number of chunk texts per embedding
	// request.
	BatchSize int

	// EmbedConcurrency bounds simultaneous embedding requests.
	EmbedConcurrency int

	// WriteConcurrency bounds simultaneous index write operations.
	// Defaults lower than EmbedConcurrency since writes mutate shared
	// state.
	WriteConcurrency int

	// MaxRetries is the maximum attempt count for transient failures.
	MaxRetries int

	// RetryBaseDelay is the initial backoff delay.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the exponential backoff.
	RetryMaxDelay time.Duration

	// RequestTimeout applies per external call, not to the run.
	RequestTimeout time.Duration

	// SoftDeadline, when positive, triggers graceful cancellation once
	// the run has been going this long. Zero disables it.
	SoftDeadline time.Duration

	// EmbedRate throttles embedding requests per second. Zero disables
	// proactive throttling.
	EmbedRate float64
}

// DefaultRunConfig returns a full-mode configuration with defaults.
func DefaultRunConfig() RunConfig {
	cfg := RunConfig{Mode: ModeFull}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *RunConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeFull
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if c.WriteConcurrency <= 0 {
		c.WriteConcurrency = DefaultWriteConcurrency
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks mode and bound consistency.
func (c *RunConfig) Validate() error {
	switch c.Mode {
	case ModeFull, ModeNewOnly, ModeNewAndUpdated:
	case ModeDeltaSince:
		if c.DeltaSince == nil {
			return fmt.Errorf("%w: delta_since mode requires a timestamp", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.BatchSize < 0 || c.EmbedConcurrency < 0 || c.WriteConcurrency < 0 {
		return fmt.Errorf("%w: negative bound", ErrInvalidConfig)
	}
	if c.EmbedRate < 0 {
		return fmt.Errorf("%w: negative embed rate", ErrInvalidConfig)
	}
	return nil
}

// PartialConfig carries inferred configuration values. Nil fields leave
// the corresponding RunConfig field untouched.
type PartialConfig struct {
	BatchSize        *int
	EmbedConcurrency *int
	WriteConcurrency *int
}

// Merge applies the non-nil fields of p onto c.
func (c *RunConfig) Merge(p PartialConfig) {
	if p.BatchSize != nil {
		c.BatchSize = *p.BatchSize
	}
	if p.EmbedConcurrency != nil {
		c.EmbedConcurrency = *p.EmbedConcurrency
	}
	if p.WriteConcurrency != nil {
		c.WriteConcurrency = *p.WriteConcurrency
	}
}
