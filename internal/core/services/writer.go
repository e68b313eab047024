package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Writer applies embedded chunks and deletions to the vector index and
// commits the matching fingerprint record. All writes for one document
// are attempted as a unit: any failure leaves the prior record
// untouched, so the store never claims an index state that was not
// actually achieved.
type Writer struct {
	index driven.VectorIndex
	store driven.FingerprintStore

	sem     *semaphore.Weighted
	retry   RetryPolicy
	timeout time.Duration

	now func() time.Time
}

// NewWriter creates a writer from the run configuration.
func NewWriter(index driven.VectorIndex, store driven.FingerprintStore, cfg domain.RunConfig) *Writer {
	return &Writer{
		index:   index,
		store:   store,
		sem:     semaphore.NewWeighted(int64(cfg.WriteConcurrency)),
		retry:   RetryPolicyFromConfig(cfg),
		timeout: cfg.RequestTimeout,
		now:     time.Now,
	}
}

// ApplyUpsert writes a new or updated document's points and commits its
// fingerprint record. For updates the new points are upserted before
// the stale ones are deleted, so the document is never momentarily
// absent from the index. Point ids are deterministic, making re-runs
// idempotent even after a partially successful attempt.
func (w *Writer) ApplyUpsert(ctx context.Context, doc domain.Document, hash string, chunks []domain.EmbeddedChunk, prior *domain.FingerprintRecord) *domain.DocumentError {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return transientError(doc.ID, "acquire write slot", err)
	}
	defer w.sem.Release(1)

	points := make([]domain.Point, len(chunks))
	pointIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := domain.PointID(doc.ID, chunk.Index)
		pointIDs[i] = id

		// Reserved keys are written after metadata so a document cannot
		// spoof another document's identity in the index payload.
		payload := make(map[string]string, len(doc.Metadata)+3)
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		payload["doc_id"] = doc.ID
		payload["chunk_index"] = fmt.Sprintf("%d", chunk.Index)
		payload["content"] = chunk.Content

		points[i] = domain.Point{ID: id, Vector: chunk.Vector, Payload: payload}
	}

	if err := w.withTimeout(ctx, func(ctx context.Context) error {
		return w.index.Upsert(ctx, points)
	}); err != nil {
		return transientError(doc.ID, "upsert points", err)
	}

	// Upsert strictly precedes delete: only ids the new chunk set no
	// longer produces are removed.
	if prior != nil {
		stale := staleIDs(prior.PointIDs, pointIDs)
		if len(stale) > 0 {
			if err := w.withTimeout(ctx, func(ctx context.Context) error {
				return w.index.Delete(ctx, stale)
			}); err != nil {
				return transientError(doc.ID, "delete stale points", err)
			}
		}
	}

	rec := domain.FingerprintRecord{
		DocID:        doc.ID,
		ContentHash:  hash,
		ChunkCount:   len(chunks),
		LastSyncedAt: w.now().UTC(),
		PointIDs:     pointIDs,
	}
	if err := w.store.Put(ctx, rec); err != nil {
		return transientError(doc.ID, "commit fingerprint", err)
	}

	return nil
}

// ApplyDelete removes a deleted document's points and then its
// fingerprint record. When the index delete fails the record is
// retained, so the deletion is retried on the next run.
func (w *Writer) ApplyDelete(ctx context.Context, rec *domain.FingerprintRecord) *domain.DocumentError {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return transientError(rec.DocID, "acquire write slot", err)
	}
	defer w.sem.Release(1)

	if len(rec.PointIDs) > 0 {
		if err := w.withTimeout(ctx, func(ctx context.Context) error {
			return w.index.Delete(ctx, rec.PointIDs)
		}); err != nil {
			return transientError(rec.DocID, "delete points", err)
		}
	}

	if err := w.store.Delete(ctx, rec.DocID); err != nil {
		return transientError(rec.DocID, "remove fingerprint", err)
	}

	return nil
}

// withTimeout runs one retried index call with the per-call timeout.
func (w *Writer) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	return w.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		return fn(callCtx)
	})
}

// staleIDs returns the ids in prior that are absent from current.
func staleIDs(prior, current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, id := range current {
		keep[id] = struct{}{}
	}

	var stale []string
	for _, id := range prior {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

func transientError(docID, verb string, err error) *domain.DocumentError {
	return &domain.DocumentError{
		DocID:   docID,
		Kind:    domain.ErrorKindTransient,
		Message: fmt.Sprintf("%s: %v", verb, err),
	}
}
