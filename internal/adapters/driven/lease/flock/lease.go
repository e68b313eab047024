// Package flock provides a run lease backed by a file lock, so two
// processes can never reconcile against the same fingerprint store
// concurrently.
package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Lease implements the interface.
var _ driven.RunLease = (*Lease)(nil)

// Lease holds an exclusive lock file next to the fingerprint store.
type Lease struct {
	fl *flock.Flock
}

// New creates a lease on the given lock file path. The parent directory
// is created if needed.
func New(path string) (*Lease, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	return &Lease{fl: flock.New(path)}, nil
}

// Acquire takes the lock without blocking. A held lock means another
// run is in progress.
func (l *Lease) Acquire(_ context.Context) error {
	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return domain.ErrRunInProgress
	}
	return nil
}

// Release gives the lock back. Safe to call when not held.
func (l *Lease) Release() error {
	return l.fl.Unlock()
}
