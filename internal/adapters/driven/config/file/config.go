// Package file loads vecsync configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// Config is the on-disk configuration. Zero values defer to engine and
// adapter defaults.
type Config struct {
	// DataDir holds the fingerprint database and lock file.
	// Defaults to ~/.vecsync/data.
	DataDir string `toml:"data_dir"`

	Run struct {
		Mode             string  `toml:"mode"`
		BatchSize        int     `toml:"batch_size"`
		EmbedConcurrency int     `toml:"embed_concurrency"`
		WriteConcurrency int     `toml:"write_concurrency"`
		MaxRetries       int     `toml:"max_retries"`
		RetryBaseDelayMs int     `toml:"retry_base_delay_ms"`
		RetryMaxDelayMs  int     `toml:"retry_max_delay_ms"`
		RequestTimeoutMs int     `toml:"request_timeout_ms"`
		SoftDeadlineMs   int     `toml:"soft_deadline_ms"`
		EmbedRate        float64 `toml:"embed_rate"`
	} `toml:"run"`

	Source struct {
		Root    string   `toml:"root"`
		Include []string `toml:"include"`
		Exclude []string `toml:"exclude"`
	} `toml:"source"`

	Embedding struct {
		BaseURL    string `toml:"base_url"`
		Model      string `toml:"model"`
		Dimensions int    `toml:"dimensions"`
	} `toml:"embedding"`

	Index struct {
		BaseURL    string `toml:"base_url"`
		Collection string `toml:"collection"`
	} `toml:"index"`

	Chunking struct {
		ChunkSize int `toml:"chunk_size"`
		Overlap   int `toml:"overlap"`
	} `toml:"chunking"`

	Store struct {
		// Backend selects the fingerprint store: "sqlite" (default) or
		// "bbolt".
		Backend string `toml:"backend"`
	} `toml:"store"`
}

// DefaultPath returns ~/.vecsync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".vecsync", "config.toml"), nil
}

// Load reads the config file at path. A missing file yields a zero
// Config without error, so every value falls back to defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// RunConfig converts the file settings into the engine's run
// configuration. Unset values keep the engine defaults.
func (c *Config) RunConfig() domain.RunConfig {
	cfg := domain.RunConfig{
		Mode:             domain.RunMode(c.Run.Mode),
		BatchSize:        c.Run.BatchSize,
		EmbedConcurrency: c.Run.EmbedConcurrency,
		WriteConcurrency: c.Run.WriteConcurrency,
		MaxRetries:       c.Run.MaxRetries,
		RetryBaseDelay:   time.Duration(c.Run.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:    time.Duration(c.Run.RetryMaxDelayMs) * time.Millisecond,
		RequestTimeout:   time.Duration(c.Run.RequestTimeoutMs) * time.Millisecond,
		SoftDeadline:     time.Duration(c.Run.SoftDeadlineMs) * time.Millisecond,
		EmbedRate:        c.Run.EmbedRate,
	}
	cfg.ApplyDefaults()
	return cfg
}
