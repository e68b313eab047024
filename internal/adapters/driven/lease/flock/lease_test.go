package flock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsync/vecsync/internal/core/domain"
)

func TestLease_AcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	ctx := context.Background()

	lease, err := New(path)
	require.NoError(t, err)

	require.NoError(t, lease.Acquire(ctx))
	require.NoError(t, lease.Release())

	// Reacquirable after release.
	require.NoError(t, lease.Acquire(ctx))
	require.NoError(t, lease.Release())
}

func TestLease_SecondHolderFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	ctx := context.Background()

	first, err := New(path)
	require.NoError(t, err)
	second, err := New(path)
	require.NoError(t, err)

	require.NoError(t, first.Acquire(ctx))

	err = second.Acquire(ctx)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	require.NoError(t, first.Release())
	assert.NoError(t, second.Acquire(ctx))
	require.NoError(t, second.Release())
}

func TestLease_ReleaseWithoutAcquire(t *testing.T) {
	lease, err := New(filepath.Join(t.TempDir(), "run.lock"))
	require.NoError(t, err)

	assert.NoError(t, lease.Release())
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "run.lock")

	lease, err := New(path)
	require.NoError(t, err)
	require.NoError(t, lease.Acquire(context.Background()))
	require.NoError(t, lease.Release())
}
