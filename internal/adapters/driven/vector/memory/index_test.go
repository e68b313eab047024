package memory

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsync/vecsync/internal/core/domain"
)

func TestIndex_UpsertReplaces(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.Point{
		{ID: "p1", Payload: map[string]string{"content": "v1"}},
	}))
	require.NoError(t, idx.Upsert(ctx, []domain.Point{
		{ID: "p1", Payload: map[string]string{"content": "v2"}},
	}))

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, "v2", idx.Payload("p1")["content"])
}

func TestIndex_DeleteAbsentIsNoError(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.Point{{ID: "p1"}, {ID: "p2"}}))
	require.NoError(t, idx.Delete(ctx, []string{"p1", "never-existed"}))

	assert.Equal(t, 1, idx.Len())
	assert.False(t, idx.Has("p1"))
	assert.True(t, idx.Has("p2"))
}

func TestIndex_ScrollStreamsAllIDs(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	want := []string{"p1", "p2", "p3"}
	for _, id := range want {
		require.NoError(t, idx.Upsert(ctx, []domain.Point{{ID: id}}))
	}

	ids, errs := idx.Scroll(ctx)
	var got []string
	for id := range ids {
		got = append(got, id)
	}
	require.NoError(t, <-errs)

	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestIndex_ScrollHonoursCancellation(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Upsert(context.Background(), []domain.Point{{ID: "p1"}, {ID: "p2"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No receiver on ids, so the sender must observe the cancellation.
	_, errs := idx.Scroll(ctx)
	assert.ErrorIs(t, <-errs, context.Canceled)
}
