package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// --- Mock implementations shared by the service tests ---

// mockSource implements driven.SourceAdapter over a fixed document
// list. listErr is emitted after the documents, mimicking a source
// whose enumeration fails partway through.
type mockSource struct {
	docs    []domain.Document
	listErr error

	// listDelay simulates a slow enumeration.
	listDelay time.Duration
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) List(ctx context.Context, since *time.Time) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if m.listDelay > 0 {
			time.Sleep(m.listDelay)
		}
		for _, doc := range m.docs {
			if since != nil && doc.SourceUpdatedAt != nil && !doc.SourceUpdatedAt.After(*since) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
		if m.listErr != nil {
			errs <- m.listErr
		}
	}()

	return docs, errs
}

// mockChunker implements driven.Chunker. By default it splits on lines.
type mockChunker struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockChunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	var chunks []domain.Chunk
	for i, line := range strings.Split(strings.TrimSpace(doc.Content), "\n") {
		if line == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			DocID:   doc.ID,
			Index:   i,
			Content: line,
		})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty content", domain.ErrUnchunkable)
	}
	return chunks, nil
}

// mockEmbedder implements driven.EmbeddingService with canned vectors.
type mockEmbedder struct {
	mu         sync.Mutex
	calls      int
	batchSizes []int

	// failTexts fail every request containing one of these contents.
	failTexts map[string]error

	// failuresBeforeSuccess makes the first n calls fail transiently.
	failuresBeforeSuccess int

	// shortResponse returns one vector fewer than requested.
	shortResponse bool

	// delay simulates a slow embedding service.
	delay time.Duration
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batchSizes = append(m.batchSizes, len(texts))
	failuresLeft := m.failuresBeforeSuccess
	if m.failuresBeforeSuccess > 0 {
		m.failuresBeforeSuccess--
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if failuresLeft > 0 {
		return nil, errors.New("embedding service overloaded")
	}
	for _, text := range texts {
		if err, ok := m.failTexts[text]; ok {
			return nil, err
		}
	}

	n := len(texts)
	if m.shortResponse {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		// Encode the text length so tests can check chunk/vector pairing.
		vectors[i] = []float32{float32(len(texts[i])), float32(i)}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Close() error                 { return nil }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockIndex implements driven.VectorIndex and records every mutation.
type mockIndex struct {
	mu        sync.Mutex
	points    map[string]domain.Point
	upsertErr error
	deleteErr error
	scrollErr error
}

func newMockIndex() *mockIndex {
	return &mockIndex{points: make(map[string]domain.Point)}
}

func (m *mockIndex) Upsert(_ context.Context, points []domain.Point) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

func (m *mockIndex) Delete(_ context.Context, pointIDs []string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range pointIDs {
		delete(m.points, id)
	}
	return nil
}

func (m *mockIndex) Scroll(ctx context.Context) (<-chan string, <-chan error) {
	ids := make(chan string)
	errs := make(chan error, 1)

	m.mu.Lock()
	snapshot := make([]string, 0, len(m.points))
	for id := range m.points {
		snapshot = append(snapshot, id)
	}
	scrollErr := m.scrollErr
	m.mu.Unlock()

	go func() {
		defer close(ids)
		defer close(errs)
		if scrollErr != nil {
			errs <- scrollErr
			return
		}
		for _, id := range snapshot {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case ids <- id:
			}
		}
	}()

	return ids, errs
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.points[id]
	return ok
}

func (m *mockIndex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// mockLease implements driven.RunLease.
type mockLease struct {
	mu       sync.Mutex
	held     bool
	busy     bool
	acquires int
	releases int
}

func (m *mockLease) Acquire(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquires++
	if m.busy || m.held {
		return domain.ErrRunInProgress
	}
	m.held = true
	return nil
}

func (m *mockLease) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	m.held = false
	return nil
}
