// Package memory provides in-memory driven adapters for tests and dry
// runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure FingerprintStore implements the interface.
var _ driven.FingerprintStore = (*FingerprintStore)(nil)

// FingerprintStore is an in-memory implementation of
// driven.FingerprintStore.
type FingerprintStore struct {
	mu      sync.RWMutex
	records map[string]domain.FingerprintRecord
}

// NewFingerprintStore creates a new in-memory fingerprint store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		records: make(map[string]domain.FingerprintRecord),
	}
}

// Get retrieves the record for a document id.
func (s *FingerprintStore) Get(_ context.Context, docID string) (*domain.FingerprintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Return a copy so callers cannot mutate stored state.
	out := rec
	out.PointIDs = append([]string(nil), rec.PointIDs...)
	return &out, nil
}

// Put stores or replaces a record.
func (s *FingerprintStore) Put(_ context.Context, rec domain.FingerprintRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.PointIDs = append([]string(nil), rec.PointIDs...)
	s.records[rec.DocID] = rec
	return nil
}

// Delete removes the record for a document id.
func (s *FingerprintStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, docID)
	return nil
}

// AllIDs returns every tracked document id, sorted.
func (s *FingerprintStore) AllIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored records. Test helper.
func (s *FingerprintStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
