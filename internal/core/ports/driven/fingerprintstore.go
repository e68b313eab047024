package driven

import (
	"context"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// FingerprintStore persists per-document sync state. It is the engine's
// only persistent state and is mutated exclusively by the reconciler.
// Put must be an atomic single-record upsert.
type FingerprintStore interface {
	// Get retrieves the record for a document id.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, docID string) (*domain.FingerprintRecord, error)

	// Put stores or replaces a record.
	Put(ctx context.Context, rec domain.FingerprintRecord) error

	// Delete removes a record. Deleting an absent id is not an error.
	Delete(ctx context.Context, docID string) error

	// AllIDs returns every tracked document id, used for deletion
	// detection in full-enumeration mode.
	AllIDs(ctx context.Context) ([]string, error)
}
