package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfig_ApplyDefaults(t *testing.T) {
	var cfg RunConfig
	cfg.ApplyDefaults()

	assert.Equal(t, ModeFull, cfg.Mode)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultEmbedConcurrency, cfg.EmbedConcurrency)
	assert.Equal(t, DefaultWriteConcurrency, cfg.WriteConcurrency)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultRetryBaseDelay, cfg.RetryBaseDelay)
	assert.Equal(t, DefaultRetryMaxDelay, cfg.RetryMaxDelay)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
}

func TestRunConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := RunConfig{Mode: ModeNewOnly, BatchSize: 4, EmbedConcurrency: 1}
	cfg.ApplyDefaults()

	assert.Equal(t, ModeNewOnly, cfg.Mode)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 1, cfg.EmbedConcurrency)
}

func TestRunConfig_Validate(t *testing.T) {
	cfg := DefaultRunConfig()
	require.NoError(t, cfg.Validate())

	cfg.Mode = "bogus"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestRunConfig_Validate_DeltaRequiresTimestamp(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Mode = ModeDeltaSince
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	since := time.Now()
	cfg.DeltaSince = &since
	assert.NoError(t, cfg.Validate())
}

func TestRunConfig_Validate_NegativeBounds(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.EmbedConcurrency = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultRunConfig()
	cfg.EmbedRate = -0.5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestRunConfig_Merge(t *testing.T) {
	cfg := DefaultRunConfig()
	batch := 8
	cfg.Merge(PartialConfig{BatchSize: &batch})

	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, DefaultEmbedConcurrency, cfg.EmbedConcurrency)
	assert.Equal(t, DefaultWriteConcurrency, cfg.WriteConcurrency)
}
