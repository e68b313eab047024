package domain

import "time"

// Document is a single unit yielded by a source adapter.
// The ID is the identity key for reconciliation and must be stable
// across enumerations of the same source.
type Document struct {
	// ID is the source-scoped stable identifier.
	ID string

	// Content is the raw text used to derive the fingerprint and chunks.
	Content string

	// Metadata contains key-value pairs passed through to the index
	// unmodified. Keys are hashed in sorted order so insertion order
	// never affects the fingerprint.
	Metadata map[string]string

	// SourceUpdatedAt is the source system's modification timestamp.
	// It is a hint for delta-mode filtering only, never a change signal.
	SourceUpdatedAt *time.Time
}

// Chunk is one piece of a document's content, produced by a Chunker.
// Index is the ordinal position within the document; point ids are
// derived from it, so chunk order must be stable.
type Chunk struct {
	DocID    string
	Index    int
	Content  string
	Metadata map[string]string
}

// EmbeddedChunk pairs a chunk with its vector representation.
type EmbeddedChunk struct {
	Chunk
	Vector []float32
}

// Point is an individual vector entry in the vector index, one per chunk.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}
