package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FingerprintRecord is the persisted per-document sync state.
// It is created only after a document's points have been written to the
// vector index, updated in place on successful re-index, and deleted only
// after the corresponding index removal succeeds. The store therefore
// always reflects index state, not source state.
type FingerprintRecord struct {
	// DocID is the document identifier.
	DocID string

	// ContentHash is the deterministic digest of the document's
	// normalised content and metadata at last successful sync.
	ContentHash string

	// ChunkCount is the number of chunks produced at last sync.
	ChunkCount int

	// LastSyncedAt is when the record was last committed.
	LastSyncedAt time.Time

	// PointIDs are the index point identifiers for this document's
	// chunks, in chunk order. Required for precise deletion when a
	// document maps to multiple index entries.
	PointIDs []string
}

// ContentHash computes the deterministic digest of a document.
// Every field is length-prefixed before hashing so adjacent fields can
// never be confused ({"a":"bc"} and {"ab":"c"} hash differently), and
// metadata keys are visited in sorted order so insertion order is
// irrelevant.
func ContentHash(doc Document) string {
	h := sha256.New()
	hashField(h, doc.Content)

	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		hashField(h, k)
		hashField(h, doc.Metadata[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// hashField writes a length-prefixed field into the digest.
func hashField(w io.Writer, s string) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(s)))
	_, _ = w.Write(prefix[:])
	_, _ = io.WriteString(w, s)
}

// pointNamespace is the fixed UUID namespace for point id derivation.
var pointNamespace = uuid.MustParse("7a5cbf42-91d4-4a6e-b2ce-0e3d8e2c5a10")

// PointID derives the index point identifier for a document chunk.
// The id is a UUIDv5 of the document id and chunk index, so re-runs
// produce identical ids even after a partially failed attempt.
func PointID(docID string, chunkIndex int) string {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(chunkIndex))

	name := make([]byte, 0, len(docID)+1+len(idx))
	name = append(name, docID...)
	name = append(name, 0)
	name = append(name, idx[:]...)

	return uuid.NewSHA1(pointNamespace, name).String()
}

// PointIDs derives point ids for the first n chunks of a document,
// in chunk order.
func PointIDs(docID string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = PointID(docID, i)
	}
	return ids
}
