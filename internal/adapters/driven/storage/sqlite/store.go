// Package sqlite provides a SQLite-backed fingerprint store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vecsync/vecsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FingerprintStore = (*Store)(nil)

// Store persists fingerprint records in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vecsync/data/fingerprints.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vecsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "fingerprints.db")

	// WAL mode for better concurrency between the run and audits.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get retrieves the record for a document id.
func (s *Store) Get(ctx context.Context, docID string) (*domain.FingerprintRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, content_hash, chunk_count, last_synced_at, point_ids
		FROM fingerprints WHERE doc_id = ?
	`, docID)

	var rec domain.FingerprintRecord
	var pointIDsJSON string
	if err := row.Scan(&rec.DocID, &rec.ContentHash, &rec.ChunkCount, &rec.LastSyncedAt, &pointIDsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning fingerprint: %w", err)
	}

	if err := json.Unmarshal([]byte(pointIDsJSON), &rec.PointIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling point ids: %w", err)
	}

	return &rec, nil
}

// Put stores or replaces a record as a single atomic upsert.
func (s *Store) Put(ctx context.Context, rec domain.FingerprintRecord) error {
	pointIDsJSON, err := json.Marshal(rec.PointIDs)
	if err != nil {
		return fmt.Errorf("marshalling point ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fingerprints (doc_id, content_hash, chunk_count, last_synced_at, point_ids)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			last_synced_at = excluded.last_synced_at,
			point_ids = excluded.point_ids
	`, rec.DocID, rec.ContentHash, rec.ChunkCount, rec.LastSyncedAt.UTC(), string(pointIDsJSON))

	if err != nil {
		return fmt.Errorf("saving fingerprint: %w", err)
	}
	return nil
}

// Delete removes the record for a document id.
func (s *Store) Delete(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM fingerprints WHERE doc_id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting fingerprint: %w", err)
	}
	return nil
}

// AllIDs returns every tracked document id.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT doc_id FROM fingerprints ORDER BY doc_id")
	if err != nil {
		return nil, fmt.Errorf("querying fingerprint ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning fingerprint id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprint ids: %w", err)
	}

	return ids, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
