package driven

import "github.com/vecsync/vecsync/internal/core/domain"

// Chunker splits a document into ordered chunks. Implementations are
// pure functions over the document: no I/O, deterministic output.
// Chunk strategy and sizes are configuration, not part of the engine.
type Chunker interface {
	// Split returns the document's chunks in stable order. A document
	// whose content cannot be chunked returns domain.ErrUnchunkable.
	Split(doc domain.Document) ([]domain.Chunk, error)
}
