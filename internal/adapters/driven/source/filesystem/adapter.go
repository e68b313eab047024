// Package filesystem provides a source adapter over a local directory
// tree. Documents are keyed by their path relative to the root, so ids
// stay stable across enumerations.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// DefaultInclude matches common text formats when no patterns are
// configured.
var DefaultInclude = []string{"**/*.md", "**/*.txt"}

// Config holds configuration for the filesystem source.
type Config struct {
	// Root is the directory to enumerate. Required.
	Root string

	// Include are doublestar patterns, matched against the
	// slash-separated relative path (default: DefaultInclude).
	Include []string

	// Exclude patterns take precedence over Include.
	Exclude []string
}

// Adapter walks a directory tree and yields one document per matched
// file.
type Adapter struct {
	root    string
	include []string
	exclude []string
}

// New creates a filesystem source adapter rooted at cfg.Root.
func New(cfg Config) (*Adapter, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("filesystem source: root is required")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem source: %s is not a directory", root)
	}

	include := cfg.Include
	if len(include) == 0 {
		include = DefaultInclude
	}

	for _, pattern := range append(append([]string{}, include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	return &Adapter{root: root, include: include, exclude: cfg.Exclude}, nil
}

// Name returns the adapter type identifier.
func (a *Adapter) Name() string {
	return "filesystem"
}

// List walks the root and streams matched files as documents. Each call
// walks fresh, so the enumeration is restartable. When since is non-nil
// only files modified at or after that instant are yielded.
func (a *Adapter) List(ctx context.Context, since *time.Time) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		err := filepath.WalkDir(a.root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(a.root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if !a.matches(rel) {
				return nil
			}

			info, err := entry.Info()
			if err != nil {
				return err
			}
			modTime := info.ModTime()
			if since != nil && modTime.Before(*since) {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			updatedAt := modTime
			doc := domain.Document{
				ID:      rel,
				Content: string(content),
				Metadata: map[string]string{
					"source":    a.Name(),
					"file_path": path,
					"file_ext":  strings.ToLower(filepath.Ext(rel)),
					"file_size": fmt.Sprintf("%d", info.Size()),
				},
				SourceUpdatedAt: &updatedAt,
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case docs <- doc:
				return nil
			}
		})
		if err != nil {
			errs <- fmt.Errorf("walk %s: %w", a.root, err)
		}
	}()

	return docs, errs
}

// matches applies exclude patterns first, then include patterns.
func (a *Adapter) matches(rel string) bool {
	for _, pattern := range a.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range a.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
