package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configfile "github.com/vecsync/vecsync/internal/adapters/driven/config/file"
	"github.com/vecsync/vecsync/internal/core/domain"
)

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func TestVersionCommand(t *testing.T) {
	cmd, out := newTestCommand()
	version = "1.2.3"
	versionCmd.Run(cmd, nil)

	assert.Equal(t, "vecsync version 1.2.3\n", out.String())
}

func TestPrintReport_Success(t *testing.T) {
	cmd, out := newTestCommand()

	printReport(cmd, &domain.RunReport{
		RunID:     "run-1",
		Mode:      domain.ModeFull,
		New:       3,
		Updated:   1,
		Unchanged: 5,
		Duration:  1500 * time.Millisecond,
	})

	got := out.String()
	assert.Contains(t, got, "Run run-1 finished: succeeded")
	assert.Contains(t, got, "new:       3")
	assert.Contains(t, got, "unchanged: 5")
	assert.Contains(t, got, "duration:  1.5s")
	assert.NotContains(t, got, "truncated")
}

func TestPrintReport_FailuresAndWarnings(t *testing.T) {
	cmd, out := newTestCommand()

	printReport(cmd, &domain.RunReport{
		RunID:     "run-2",
		Mode:      domain.ModeNewOnly,
		Truncated: true,
		Warnings:  []string{"deletion detection disabled in new_only mode"},
		Failures: []domain.DocumentError{
			{DocID: "doc-1", Kind: domain.ErrorKindTransient, Message: "timeout"},
		},
	})

	got := out.String()
	assert.Contains(t, got, "succeeded_with_failures")
	assert.Contains(t, got, "truncated")
	assert.Contains(t, got, "warning: deletion detection disabled")
	assert.Contains(t, got, "failure: transient error for doc-1: timeout")
}

func TestRunConfigFromFlags_Overrides(t *testing.T) {
	e := &engine{cfg: &configfile.Config{}}

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&flagMode, "mode", "", "")
	cmd.Flags().StringVar(&flagSince, "since", "", "")
	cmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "")
	cmd.Flags().IntVar(&flagEmbedConcurrency, "embed-concurrency", 0, "")
	cmd.Flags().IntVar(&flagWriteConcurrency, "write-concurrency", 0, "")
	cmd.Flags().DurationVar(&flagSoftDeadline, "soft-deadline", 0, "")

	require.NoError(t, cmd.Flags().Set("mode", "delta_since"))
	require.NoError(t, cmd.Flags().Set("since", "2026-08-01T00:00:00Z"))
	require.NoError(t, cmd.Flags().Set("batch-size", "4"))

	cfg, err := runConfigFromFlags(cmd, e)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeDeltaSince, cfg.Mode)
	require.NotNil(t, cfg.DeltaSince)
	assert.Equal(t, 2026, cfg.DeltaSince.Year())
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, domain.DefaultEmbedConcurrency, cfg.EmbedConcurrency)
}

func TestRunConfigFromFlags_BadSince(t *testing.T) {
	e := &engine{cfg: &configfile.Config{}}

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&flagSince, "since", "", "")
	require.NoError(t, cmd.Flags().Set("since", "yesterday"))

	_, err := runConfigFromFlags(cmd, e)
	assert.Error(t, err)
}
