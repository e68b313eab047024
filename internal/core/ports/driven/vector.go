package driven

import (
	"context"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// VectorIndex stores and removes vector points. The engine drives it
// through inserts, deletes and scrolls only; search is out of scope.
type VectorIndex interface {
	// Upsert inserts or replaces the given points. The call succeeds or
	// fails as a whole.
	Upsert(ctx context.Context, points []domain.Point) error

	// Delete removes the points with the given ids. Deleting an id that
	// does not exist is not an error.
	Delete(ctx context.Context, pointIDs []string) error

	// Scroll streams every point id currently in the index. Used only
	// for consistency audits, not routine runs.
	Scroll(ctx context.Context) (<-chan string, <-chan error)

	// Close releases resources.
	Close() error
}
