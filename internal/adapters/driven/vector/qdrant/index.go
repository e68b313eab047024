// Package qdrant provides a vector index adapter over the Qdrant REST
// API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "documents"
	DefaultTimeout    = 30 * time.Second
	DefaultScrollPage = 256
)

// Config holds configuration for the Qdrant index adapter.
type Config struct {
	// BaseURL is the Qdrant REST base URL (default: http://localhost:6333).
	BaseURL string

	// Collection is the target collection name (default: documents).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// ScrollPage is the page size for Scroll (default: 256).
	ScrollPage int
}

// Index talks to one Qdrant collection.
type Index struct {
	client     *http.Client
	baseURL    string
	collection string
	scrollPage int
}

// NewIndex creates a Qdrant index adapter.
func NewIndex(cfg Config) *Index {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ScrollPage == 0 {
		cfg.ScrollPage = DefaultScrollPage
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
		scrollPage: cfg.ScrollPage,
	}
}

// EnsureCollection creates the collection with a cosine vector config
// if it does not exist yet.
func (q *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	status, _, err := q.do(ctx, http.MethodGet, "/collections/"+q.collection, nil)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("check collection: unexpected status %d", status)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	status, respBody, err := q.do(ctx, http.MethodPut, "/collections/"+q.collection, body)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("create collection: status %d: %s", status, respBody)
	}
	return nil
}

// upsertPoint is the Qdrant point representation.
type upsertPoint struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Upsert inserts or replaces the given points. The wait flag makes the
// call synchronous so success means the points are applied.
func (q *Index) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	payload := make([]upsertPoint, len(points))
	for i, p := range points {
		payload[i] = upsertPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	status, respBody, err := q.do(ctx, http.MethodPut,
		"/collections/"+q.collection+"/points?wait=true",
		map[string]any{"points": payload})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upsert points: status %d: %s", status, respBody)
	}
	return nil
}

// Delete removes the points with the given ids.
func (q *Index) Delete(ctx context.Context, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}

	status, respBody, err := q.do(ctx, http.MethodPost,
		"/collections/"+q.collection+"/points/delete?wait=true",
		map[string]any{"points": pointIDs})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("delete points: status %d: %s", status, respBody)
	}
	return nil
}

// scrollResponse is the Qdrant scroll result envelope.
type scrollResponse struct {
	Result struct {
		Points []struct {
			ID string `json:"id"`
		} `json:"points"`
		NextPageOffset *string `json:"next_page_offset"`
	} `json:"result"`
}

// Scroll streams every point id in the collection, page by page.
func (q *Index) Scroll(ctx context.Context) (<-chan string, <-chan error) {
	ids := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(ids)
		defer close(errs)

		var offset *string
		for {
			body := map[string]any{
				"limit":        q.scrollPage,
				"with_payload": false,
				"with_vector":  false,
			}
			if offset != nil {
				body["offset"] = *offset
			}

			status, respBody, err := q.do(ctx, http.MethodPost,
				"/collections/"+q.collection+"/points/scroll", body)
			if err != nil {
				errs <- fmt.Errorf("scroll points: %w", err)
				return
			}
			if status != http.StatusOK {
				errs <- fmt.Errorf("scroll points: status %d: %s", status, respBody)
				return
			}

			var page scrollResponse
			if err := json.Unmarshal(respBody, &page); err != nil {
				errs <- fmt.Errorf("decode scroll response: %w", err)
				return
			}

			for _, p := range page.Result.Points {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case ids <- p.ID:
				}
			}

			if page.Result.NextPageOffset == nil {
				return
			}
			offset = page.Result.NextPageOffset
		}
	}()

	return ids, errs
}

// Close releases resources.
func (q *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// do runs one JSON request and returns status and body.
func (q *Index) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
