package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Classifier compares a source snapshot against the fingerprint store
// and partitions document ids into a change set.
type Classifier struct {
	store driven.FingerprintStore
}

// NewClassifier creates a classifier over the given store.
func NewClassifier(store driven.FingerprintStore) *Classifier {
	return &Classifier{store: store}
}

// Classification is the result of one classification pass.
type Classification struct {
	// Changes is the partitioned change set, sorted for determinism.
	Changes domain.ChangeSet

	// Hashes maps each snapshot document id to its content hash,
	// computed exactly once per run.
	Hashes map[string]string

	// Docs indexes the snapshot by document id.
	Docs map[string]domain.Document

	// Prior holds the existing fingerprint record for updated and
	// deleted ids.
	Prior map[string]*domain.FingerprintRecord
}

// Classify partitions the snapshot into new, updated, unchanged and,
// when detectDeletes is set, deleted ids. For the same snapshot and
// store state the result is identical regardless of enumeration order.
func (c *Classifier) Classify(ctx context.Context, snapshot []domain.Document, detectDeletes bool) (*Classification, error) {
	result := &Classification{
		Hashes: make(map[string]string, len(snapshot)),
		Docs:   make(map[string]domain.Document, len(snapshot)),
		Prior:  make(map[string]*domain.FingerprintRecord),
	}

	for _, doc := range snapshot {
		if doc.ID == "" {
			return nil, fmt.Errorf("classify: document with empty id")
		}
		if _, dup := result.Docs[doc.ID]; dup {
			return nil, fmt.Errorf("classify: duplicate document id %q", doc.ID)
		}
		result.Docs[doc.ID] = doc

		hash := domain.ContentHash(doc)
		result.Hashes[doc.ID] = hash

		rec, err := c.store.Get(ctx, doc.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			result.Changes.New = append(result.Changes.New, doc.ID)
		case err != nil:
			return nil, fmt.Errorf("get fingerprint %s: %w", doc.ID, err)
		case rec.ContentHash != hash:
			result.Prior[doc.ID] = rec
			result.Changes.Updated = append(result.Changes.Updated, doc.ID)
		default:
			result.Changes.Unchanged = append(result.Changes.Unchanged, doc.ID)
		}
	}

	if detectDeletes {
		ids, err := c.store.AllIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list fingerprint ids: %w", err)
		}
		for _, id := range ids {
			if _, present := result.Docs[id]; present {
				continue
			}
			rec, err := c.store.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get fingerprint %s: %w", id, err)
			}
			result.Prior[id] = rec
			result.Changes.Deleted = append(result.Changes.Deleted, id)
		}
	}

	result.Changes.Sort()
	return result, nil
}
