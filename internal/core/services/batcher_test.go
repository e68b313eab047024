package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecsync/vecsync/internal/core/domain"
)

func fastRunConfig() domain.RunConfig {
	cfg := domain.DefaultRunConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	cfg.RequestTimeout = time.Second
	return cfg
}

func TestBatcher_EmbedDocument_PreservesChunkOrder(t *testing.T) {
	embedder := &mockEmbedder{}
	b := NewBatcher(&mockChunker{}, embedder, fastRunConfig())

	doc := domain.Document{ID: "doc-1", Content: "alpha\nbeta\ngamma"}
	chunks, derr := b.EmbedDocument(context.Background(), doc)
	require.Nil(t, derr)
	require.Len(t, chunks, 3)

	for i, chunk := range chunks {
		assert.Equal(t, "doc-1", chunk.DocID)
		assert.Equal(t, i, chunk.Index)
		// The mock encodes the text length in the first vector element.
		require.Len(t, chunk.Vector, 2)
		assert.Equal(t, float32(len(chunk.Content)), chunk.Vector[0])
	}
}

func TestBatcher_EmbedDocument_SplitsIntoBatches(t *testing.T) {
	embedder := &mockEmbedder{}
	cfg := fastRunConfig()
	cfg.BatchSize = 2
	b := NewBatcher(&mockChunker{}, embedder, cfg)

	doc := domain.Document{ID: "doc-1", Content: "a\nb\nc\nd\ne"}
	chunks, derr := b.EmbedDocument(context.Background(), doc)
	require.Nil(t, derr)
	assert.Len(t, chunks, 5)

	// 5 chunks with batch size 2 yield requests of 2, 2 and 1.
	assert.Equal(t, []int{2, 2, 1}, embedder.batchSizes)
}

func TestBatcher_EmbedDocument_ChunkFailureIsPermanent(t *testing.T) {
	chunker := &mockChunker{err: domain.ErrUnchunkable}
	b := NewBatcher(chunker, &mockEmbedder{}, fastRunConfig())

	_, derr := b.EmbedDocument(context.Background(), domain.Document{ID: "doc-1", Content: "x"})
	require.NotNil(t, derr)
	assert.Equal(t, domain.ErrorKindPermanent, derr.Kind)
	assert.Equal(t, "doc-1", derr.DocID)
}

func TestBatcher_EmbedDocument_RetriesTransientFailures(t *testing.T) {
	embedder := &mockEmbedder{failuresBeforeSuccess: 2}
	b := NewBatcher(&mockChunker{}, embedder, fastRunConfig())

	chunks, derr := b.EmbedDocument(context.Background(), domain.Document{ID: "doc-1", Content: "hello"})
	require.Nil(t, derr)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 3, embedder.callCount())
}

func TestBatcher_EmbedDocument_ExhaustedRetriesAreTransient(t *testing.T) {
	embedder := &mockEmbedder{failTexts: map[string]error{"hello": errors.New("boom")}}
	b := NewBatcher(&mockChunker{}, embedder, fastRunConfig())

	_, derr := b.EmbedDocument(context.Background(), domain.Document{ID: "doc-1", Content: "hello"})
	require.NotNil(t, derr)
	assert.Equal(t, domain.ErrorKindTransient, derr.Kind)
	assert.Equal(t, domain.DefaultMaxRetries, embedder.callCount())
}

func TestBatcher_EmbedDocument_VectorCountMismatchIsPermanent(t *testing.T) {
	embedder := &mockEmbedder{shortResponse: true}
	b := NewBatcher(&mockChunker{}, embedder, fastRunConfig())

	_, derr := b.EmbedDocument(context.Background(), domain.Document{ID: "doc-1", Content: "a\nb"})
	require.NotNil(t, derr)
	assert.Equal(t, domain.ErrorKindPermanent, derr.Kind)
	// A malformed response is not retried.
	assert.Equal(t, 1, embedder.callCount())
}
