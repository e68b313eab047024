package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsync/vecsync/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(docID string) domain.FingerprintRecord {
	return domain.FingerprintRecord{
		DocID:        docID,
		ContentHash:  "hash-" + docID,
		ChunkCount:   2,
		LastSyncedAt: time.Now().UTC().Truncate(time.Second),
		PointIDs:     domain.PointIDs(docID, 2),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("doc-1")
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, rec.DocID, got.DocID)
	assert.Equal(t, rec.ContentHash, got.ContentHash)
	assert.Equal(t, rec.ChunkCount, got.ChunkCount)
	assert.Equal(t, rec.PointIDs, got.PointIDs)
	assert.True(t, rec.LastSyncedAt.Equal(got.LastSyncedAt))
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Put_ReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("doc-1")
	require.NoError(t, store.Put(ctx, rec))

	rec.ContentHash = "hash-v2"
	rec.ChunkCount = 1
	rec.PointIDs = domain.PointIDs("doc-1", 1)
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-v2", got.ContentHash)
	assert.Equal(t, 1, got.ChunkCount)
	assert.Len(t, got.PointIDs, 1)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testRecord("doc-1")))
	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an absent id is not an error.
	assert.NoError(t, store.Delete(ctx, "doc-1"))
}

func TestStore_AllIDs_Sorted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.Put(ctx, testRecord(id)))
	}

	ids, err := store.AllIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), testRecord("doc-1")))
	require.NoError(t, store.Close())

	// Reopening the same directory must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-doc-1", got.ContentHash)
}
