package services

import (
	"context"
	"errors"
	"time"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// RetryPolicy configures exponential backoff for transient failures.
// One policy instance is shared by the embedding batcher and the index
// writer so backoff behaviour is parameterised rather than duplicated.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// Multiplier is the backoff growth factor.
	Multiplier float64
}

// RetryPolicyFromConfig builds the shared policy from a run config.
func RetryPolicyFromConfig(cfg domain.RunConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		Multiplier:  2.0,
	}
}

// permanentError wraps errors that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable for RetryPolicy.Do.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do executes fn with exponential backoff until it succeeds, returns a
// permanent error, the context is cancelled, or attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.BaseDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		lastErr = err

		// Don't retry on context cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * p.Multiplier)
				if p.MaxDelay > 0 && backoff > p.MaxDelay {
					backoff = p.MaxDelay
				}
			}
		}
	}

	return lastErr
}
