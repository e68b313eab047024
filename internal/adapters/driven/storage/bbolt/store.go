// Package bbolt provides a bbolt-backed fingerprint store for
// single-file embedded deployments.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FingerprintStore = (*Store)(nil)

var bucketFingerprints = []byte("fingerprints")

// Store persists fingerprint records in a bbolt database.
type Store struct {
	db *bbolt.DB
}

// fingerprintRow is the stored JSON form of a record. LastSyncedAt is
// kept as Unix nanoseconds so the round trip preserves the precision
// the other store backends keep.
type fingerprintRow struct {
	ContentHash  string   `json:"content_hash"`
	ChunkCount   int      `json:"chunk_count"`
	LastSyncedAt int64    `json:"last_synced_at_ns"`
	PointIDs     []string `json:"point_ids"`
}

// NewStore opens or creates a bbolt store at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFingerprints)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the record for a document id.
func (s *Store) Get(_ context.Context, docID string) (*domain.FingerprintRecord, error) {
	var rec *domain.FingerprintRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFingerprints).Get([]byte(docID))
		if data == nil {
			return domain.ErrNotFound
		}

		var row fingerprintRow
		if err := json.Unmarshal(data, &row); err != nil {
			return fmt.Errorf("unmarshalling fingerprint: %w", err)
		}

		rec = &domain.FingerprintRecord{
			DocID:        docID,
			ContentHash:  row.ContentHash,
			ChunkCount:   row.ChunkCount,
			LastSyncedAt: time.Unix(0, row.LastSyncedAt).UTC(),
			PointIDs:     row.PointIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Put stores or replaces a record.
func (s *Store) Put(_ context.Context, rec domain.FingerprintRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		row := fingerprintRow{
			ContentHash:  rec.ContentHash,
			ChunkCount:   rec.ChunkCount,
			LastSyncedAt: rec.LastSyncedAt.UnixNano(),
			PointIDs:     rec.PointIDs,
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshalling fingerprint: %w", err)
		}
		return tx.Bucket(bucketFingerprints).Put([]byte(rec.DocID), data)
	})
}

// Delete removes the record for a document id.
func (s *Store) Delete(_ context.Context, docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFingerprints).Delete([]byte(docID))
	})
}

// AllIDs returns every tracked document id in key order.
func (s *Store) AllIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFingerprints).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
