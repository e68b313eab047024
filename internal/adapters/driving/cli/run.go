package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/services"
	"github.com/vecsync/vecsync/internal/logger"
)

var (
	flagMode             string
	flagSince            string
	flagSource           string
	flagBatchSize        int
	flagEmbedConcurrency int
	flagWriteConcurrency int
	flagSoftDeadline     time.Duration
	flagInfer            bool
	flagJSON             bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass",
	Long: `Enumerates the source, classifies every document as new, updated,
deleted or unchanged, then embeds and writes only what changed.

A run is all-or-nothing per document: the index and the fingerprint
store never disagree about a document that finished processing.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagMode, "mode", "", "run mode: full, new_only, new_and_updated, delta_since")
	runCmd.Flags().StringVar(&flagSince, "since", "", "RFC3339 timestamp for delta_since mode")
	runCmd.Flags().StringVar(&flagSource, "source", "", "source directory (overrides config)")
	runCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "chunk texts per embedding request")
	runCmd.Flags().IntVar(&flagEmbedConcurrency, "embed-concurrency", 0, "simultaneous embedding requests")
	runCmd.Flags().IntVar(&flagWriteConcurrency, "write-concurrency", 0, "simultaneous index writes")
	runCmd.Flags().DurationVar(&flagSoftDeadline, "soft-deadline", 0, "stop starting new documents after this long")
	runCmd.Flags().BoolVar(&flagInfer, "infer", false, "infer batch size and concurrency from a source sample")
	runCmd.Flags().BoolVar(&flagJSON, "json", false, "print the run report as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	e, err := buildEngine(flagSource)
	if err != nil {
		return err
	}
	defer e.Close()

	cfg, err := runConfigFromFlags(cmd, e)
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM trigger graceful cancellation: in-flight documents
	// finish, nothing new starts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}
	if err := e.index.EnsureCollection(ctx, e.embedder.Dimensions()); err != nil {
		return fmt.Errorf("preparing index collection: %w", err)
	}

	if flagInfer {
		sample, err := sampleSource(ctx, e)
		if err != nil {
			return fmt.Errorf("sampling source: %w", err)
		}
		cfg.Merge(services.InferConfig(sample))
		logger.Debug("inferred batch_size=%d embed_concurrency=%d", cfg.BatchSize, cfg.EmbedConcurrency)
	}

	report, err := runWithProgress(ctx, cmd, e, cfg)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if flagJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	printReport(cmd, report)
	return nil
}

// runConfigFromFlags layers flag values over the config file.
func runConfigFromFlags(cmd *cobra.Command, e *engine) (domain.RunConfig, error) {
	cfg := e.cfg.RunConfig()

	if cmd.Flags().Changed("mode") {
		cfg.Mode = domain.RunMode(flagMode)
	}
	if cmd.Flags().Changed("since") {
		ts, err := time.Parse(time.RFC3339, flagSince)
		if err != nil {
			return cfg, fmt.Errorf("parsing --since: %w", err)
		}
		cfg.DeltaSince = &ts
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = flagBatchSize
	}
	if cmd.Flags().Changed("embed-concurrency") {
		cfg.EmbedConcurrency = flagEmbedConcurrency
	}
	if cmd.Flags().Changed("write-concurrency") {
		cfg.WriteConcurrency = flagWriteConcurrency
	}
	if cmd.Flags().Changed("soft-deadline") {
		cfg.SoftDeadline = flagSoftDeadline
	}

	return cfg, nil
}

// sampleSource gathers up to 256 documents for configuration inference.
func sampleSource(ctx context.Context, e *engine) ([]domain.Document, error) {
	const sampleLimit = 256

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docs, errs := e.source.List(ctx, nil)

	var sample []domain.Document
	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			sample = append(sample, doc)
			if len(sample) >= sampleLimit {
				return sample, nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return sample, nil
}

// runWithProgress executes the run while printing progress updates.
func runWithProgress(ctx context.Context, cmd *cobra.Command, e *engine, cfg domain.RunConfig) (*domain.RunReport, error) {
	type result struct {
		report *domain.RunReport
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		report, err := e.reconciler.Run(ctx, cfg)
		resCh <- result{report, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			status := e.reconciler.Status()
			if status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents (%d errors)", status.DocumentsProcessed, status.ErrorCount)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

func printReport(cmd *cobra.Command, report *domain.RunReport) {
	cmd.Printf("Run %s finished: %s\n", report.RunID, report.Outcome())
	cmd.Printf("  mode:      %s\n", report.Mode)
	cmd.Printf("  new:       %d\n", report.New)
	cmd.Printf("  updated:   %d\n", report.Updated)
	cmd.Printf("  deleted:   %d\n", report.Deleted)
	cmd.Printf("  unchanged: %d\n", report.Unchanged)
	cmd.Printf("  failed:    %d\n", report.Failed)
	cmd.Printf("  duration:  %s\n", report.Duration.Round(time.Millisecond))
	if report.Truncated {
		cmd.Println("  run was truncated before every document was processed")
	}
	for _, w := range report.Warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	for _, f := range report.Failures {
		cmd.Printf("  failure: %s\n", f.Error())
	}
}
