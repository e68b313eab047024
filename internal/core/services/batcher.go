package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Batcher converts a document's chunks into embedded chunks under
// bounded concurrency and an optional request rate limit. A failure is
// always scoped to the enclosing document; one document's failure never
// aborts the batch.
type Batcher struct {
	chunker  driven.Chunker
	embedder driven.EmbeddingService

	sem     *semaphore.Weighted
	limiter *rate.Limiter
	retry   RetryPolicy

	batchSize int
	timeout   time.Duration
}

// NewBatcher creates a batcher from the run configuration.
func NewBatcher(chunker driven.Chunker, embedder driven.EmbeddingService, cfg domain.RunConfig) *Batcher {
	var limiter *rate.Limiter
	if cfg.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1)
	}

	return &Batcher{
		chunker:   chunker,
		embedder:  embedder,
		sem:       semaphore.NewWeighted(int64(cfg.EmbedConcurrency)),
		limiter:   limiter,
		retry:     RetryPolicyFromConfig(cfg),
		batchSize: cfg.BatchSize,
		timeout:   cfg.RequestTimeout,
	}
}

// EmbedDocument splits one document and embeds its chunks in stable
// chunk order. Chunking failures are returned as permanent
// DocumentErrors; embedding failures that exhaust retries are returned
// as transient DocumentErrors.
func (b *Batcher) EmbedDocument(ctx context.Context, doc domain.Document) ([]domain.EmbeddedChunk, *domain.DocumentError) {
	chunks, err := b.chunker.Split(doc)
	if err != nil {
		return nil, &domain.DocumentError{
			DocID:   doc.ID,
			Kind:    domain.ErrorKindPermanent,
			Message: fmt.Sprintf("chunk: %v", err),
		}
	}
	if len(chunks) == 0 {
		return nil, &domain.DocumentError{
			DocID:   doc.ID,
			Kind:    domain.ErrorKindPermanent,
			Message: "chunk: document produced no chunks",
		}
	}

	embedded := make([]domain.EmbeddedChunk, len(chunks))
	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		vectors, err := b.embedBatch(ctx, chunks[start:end])
		if err != nil {
			kind := domain.ErrorKindTransient
			if IsPermanent(err) {
				kind = domain.ErrorKindPermanent
			}
			return nil, &domain.DocumentError{
				DocID:   doc.ID,
				Kind:    kind,
				Message: fmt.Sprintf("embed chunks %d-%d: %v", start, end-1, err),
			}
		}

		for i, vec := range vectors {
			embedded[start+i] = domain.EmbeddedChunk{
				Chunk:  chunks[start+i],
				Vector: vec,
			}
		}
	}

	return embedded, nil
}

// embedBatch runs one bounded, rate-limited, retried embedding request.
func (b *Batcher) embedBatch(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	// Blocking on the semaphore is expected under load; it protects the
	// embedding service, not the caller.
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var vectors [][]float32
	err := b.retry.Do(ctx, func(ctx context.Context) error {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		result, err := b.embedder.EmbedBatch(callCtx, texts)
		if err != nil {
			return err
		}
		if len(result) != len(texts) {
			return Permanent(fmt.Errorf("embedding service returned %d vectors for %d texts", len(result), len(texts)))
		}
		vectors = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}
