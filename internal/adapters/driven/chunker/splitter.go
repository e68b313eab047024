// Package chunker provides the default text splitter used when no
// external chunking collaborator is configured.
package chunker

import (
	"fmt"
	"strings"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.Chunker = (*Splitter)(nil)

// Default configuration values.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter splits text on paragraph boundaries and packs paragraphs
// greedily into chunks of at most chunkSize runes. Paragraphs longer
// than chunkSize are hard-wrapped with overlap so no content is lost.
// Output is deterministic and involves no I/O.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive arguments fall back to
// defaults; overlap is clamped below chunkSize.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the document's chunks in stable order.
func (s *Splitter) Split(doc domain.Document) ([]domain.Chunk, error) {
	text := strings.TrimSpace(doc.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty content", domain.ErrUnchunkable)
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len([]rune(para)) <= s.chunkSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, s.hardWrap(para)...)
	}

	merged := s.pack(pieces)

	chunks := make([]domain.Chunk, len(merged))
	for i, content := range merged {
		chunks[i] = domain.Chunk{
			DocID:   doc.ID,
			Index:   i,
			Content: content,
			Metadata: map[string]string{
				"chunk_total": fmt.Sprintf("%d", len(merged)),
			},
		}
	}

	return chunks, nil
}

// hardWrap slices an oversized paragraph into rune windows with
// overlap.
func (s *Splitter) hardWrap(para string) []string {
	runes := []rune(para)
	step := s.chunkSize - s.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// pack merges consecutive pieces while they fit within chunkSize.
func (s *Splitter) pack(pieces []string) []string {
	var out []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			out = append(out, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, piece := range pieces {
		pieceLen := len([]rune(piece))
		// +2 accounts for the paragraph separator.
		if currentLen > 0 && currentLen+pieceLen+2 > s.chunkSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(piece)
		currentLen += pieceLen
	}
	flush()

	return out
}
