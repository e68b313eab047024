// Package cli implements the vecsync command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vecsync/vecsync/internal/adapters/driven/chunker"
	configfile "github.com/vecsync/vecsync/internal/adapters/driven/config/file"
	ollamaembed "github.com/vecsync/vecsync/internal/adapters/driven/embedding/ollama"
	flocklease "github.com/vecsync/vecsync/internal/adapters/driven/lease/flock"
	"github.com/vecsync/vecsync/internal/adapters/driven/source/filesystem"
	bboltstore "github.com/vecsync/vecsync/internal/adapters/driven/storage/bbolt"
	sqlitestore "github.com/vecsync/vecsync/internal/adapters/driven/storage/sqlite"
	"github.com/vecsync/vecsync/internal/adapters/driven/vector/qdrant"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
	"github.com/vecsync/vecsync/internal/core/services"
	"github.com/vecsync/vecsync/internal/logger"
)

var version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vecsync",
	Short: "Keep a vector index in sync with a document corpus",
	Long: `vecsync incrementally reconciles a vector index against a changing
document corpus. It fingerprints every document, embeds only what
changed, and removes index entries for documents that disappeared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.vecsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// engine bundles the wired reconciler with the resources it owns.
type engine struct {
	reconciler *services.Reconciler
	source     driven.SourceAdapter
	embedder   *ollamaembed.EmbeddingService
	index      *qdrant.Index
	store      driven.FingerprintStore
	lease      driven.RunLease
	cfg        *configfile.Config
	dataDir    string
	closers    []func() error
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			logger.Warn("closing resource: %v", err)
		}
	}
}

func loadConfig() (*configfile.Config, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config from %s", path)
	return cfg, nil
}

func dataDir(cfg *configfile.Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".vecsync", "data"), nil
}

func newFingerprintStore(cfg *configfile.Config, dir string) (driven.FingerprintStore, func() error, error) {
	switch cfg.Store.Backend {
	case "", "sqlite":
		store, err := sqlitestore.NewStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "bbolt":
		store, err := bboltstore.NewStore(filepath.Join(dir, "fingerprints.bolt"))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildEngine wires every adapter from the loaded configuration.
// sourceRoot, when non-empty, overrides the configured source root.
func buildEngine(sourceRoot string) (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dir, err := dataDir(cfg)
	if err != nil {
		return nil, err
	}

	e := &engine{cfg: cfg, dataDir: dir}

	store, closeStore, err := newFingerprintStore(cfg, dir)
	if err != nil {
		return nil, fmt.Errorf("opening fingerprint store: %w", err)
	}
	e.store = store
	e.closers = append(e.closers, closeStore)

	root := cfg.Source.Root
	if sourceRoot != "" {
		root = sourceRoot
	}
	src, err := filesystem.New(filesystem.Config{
		Root:    root,
		Include: cfg.Source.Include,
		Exclude: cfg.Source.Exclude,
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("configuring source: %w", err)
	}
	e.source = src

	e.embedder = ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	e.closers = append(e.closers, e.embedder.Close)

	e.index = qdrant.NewIndex(qdrant.Config{
		BaseURL:    cfg.Index.BaseURL,
		Collection: cfg.Index.Collection,
	})
	e.closers = append(e.closers, e.index.Close)

	lease, err := flocklease.New(filepath.Join(dir, "run.lock"))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("configuring run lease: %w", err)
	}
	e.lease = lease

	splitter := chunker.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)

	e.reconciler = services.NewReconciler(src, splitter, e.embedder, e.index, store, lease)
	return e, nil
}
