// Package memory provides an in-memory vector index for tests and dry
// runs.
package memory

import (
	"context"
	"sync"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores points in a map. It mirrors the index contract exactly:
// upserts replace, deletes of absent ids succeed, scroll streams ids.
type Index struct {
	mu     sync.RWMutex
	points map[string]domain.Point
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{points: make(map[string]domain.Point)}
}

// Upsert inserts or replaces the given points.
func (i *Index) Upsert(_ context.Context, points []domain.Point) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, p := range points {
		i.points[p.ID] = p
	}
	return nil
}

// Delete removes the points with the given ids.
func (i *Index) Delete(_ context.Context, pointIDs []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range pointIDs {
		delete(i.points, id)
	}
	return nil
}

// Scroll streams every point id currently in the index.
func (i *Index) Scroll(ctx context.Context) (<-chan string, <-chan error) {
	ids := make(chan string)
	errs := make(chan error, 1)

	i.mu.RLock()
	snapshot := make([]string, 0, len(i.points))
	for id := range i.points {
		snapshot = append(snapshot, id)
	}
	i.mu.RUnlock()

	go func() {
		defer close(ids)
		defer close(errs)
		for _, id := range snapshot {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case ids <- id:
			}
		}
	}()

	return ids, errs
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// Len returns the number of stored points. Test helper.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.points)
}

// Has reports whether a point id is present. Test helper.
func (i *Index) Has(id string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.points[id]
	return ok
}

// Payload returns a point's payload. Test helper.
func (i *Index) Payload(id string) map[string]string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.points[id].Payload
}
