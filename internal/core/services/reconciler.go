package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vecsync/vecsync/internal/core/domain"
	"github.com/vecsync/vecsync/internal/core/ports/driven"
	"github.com/vecsync/vecsync/internal/core/ports/driving"
	"github.com/vecsync/vecsync/internal/logger"
)

// Ensure Reconciler implements the interface.
var _ driving.Reconciler = (*Reconciler)(nil)

// Reconciler coordinates one reconciliation run: it acquires the store
// lease, classifies the source snapshot, pipelines each changed
// document through chunk, embed, write and commit, and aggregates the
// run report. Per-document failures are isolated; only setup errors
// abort a run.
type Reconciler struct {
	source   driven.SourceAdapter
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	store    driven.FingerprintStore
	lease    driven.RunLease

	mu     sync.RWMutex
	status driving.RunStatus
}

// NewReconciler creates a reconciler over the given collaborators.
func NewReconciler(
	source driven.SourceAdapter,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	store driven.FingerprintStore,
	lease driven.RunLease,
) *Reconciler {
	return &Reconciler{
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		store:    store,
		lease:    lease,
		status:   driving.RunStatus{State: driving.StateIdle},
	}
}

// category tags a unit of work with its change-set origin so the report
// can count successes per category.
type category int

const (
	categoryNew category = iota
	categoryUpdated
	categoryDeleted
)

type job struct {
	docID string
	cat   category
}

// Run executes one reconciliation run.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (r *Reconciler) Run(ctx context.Context, cfg domain.RunConfig) (*domain.RunReport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	// The soft deadline spans the whole run, including enumeration and
	// classification, so a slow source eats into the pipeline budget.
	gateCtx := ctx
	if cfg.SoftDeadline > 0 {
		var cancel context.CancelFunc
		gateCtx, cancel = context.WithDeadline(ctx, start.Add(cfg.SoftDeadline))
		defer cancel()
	}

	// Exclusive lease before any classification. A concurrent run fails
	// fast with domain.ErrRunInProgress.
	if err := r.lease.Acquire(ctx); err != nil {
		r.setState(driving.StateFailed)
		return nil, fmt.Errorf("acquire lease: %w", err)
	}
	defer func() {
		if err := r.lease.Release(); err != nil {
			logger.Warn("release lease: %v", err)
		}
	}()

	r.beginRun()
	logger.Info("Starting reconciliation run (mode=%s)", cfg.Mode)

	report := &domain.RunReport{
		RunID: uuid.NewString(),
		Mode:  cfg.Mode,
	}

	var since *time.Time
	if cfg.Mode == domain.ModeDeltaSince {
		since = cfg.DeltaSince
	}

	snapshot, err := r.drainSource(ctx, since)
	if err != nil {
		r.setState(driving.StateFailed)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	detectDeletes := cfg.Mode == domain.ModeFull
	cls, err := NewClassifier(r.store).Classify(ctx, snapshot, detectDeletes)
	if err != nil {
		r.setState(driving.StateFailed)
		return nil, fmt.Errorf("classify: %w", err)
	}

	logger.Info("Change set: %d new, %d updated, %d deleted, %d unchanged",
		len(cls.Changes.New), len(cls.Changes.Updated), len(cls.Changes.Deleted), len(cls.Changes.Unchanged))

	report.Unchanged = len(cls.Changes.Unchanged)
	if !detectDeletes {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("deletion detection disabled in %s mode", cfg.Mode))
	}

	jobsList := make([]job, 0, cls.Changes.Total())
	for _, id := range cls.Changes.New {
		jobsList = append(jobsList, job{docID: id, cat: categoryNew})
	}
	if cfg.Mode != domain.ModeNewOnly {
		for _, id := range cls.Changes.Updated {
			jobsList = append(jobsList, job{docID: id, cat: categoryUpdated})
		}
	} else if len(cls.Changes.Updated) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d updated documents skipped in %s mode", len(cls.Changes.Updated), cfg.Mode))
	}
	for _, id := range cls.Changes.Deleted {
		jobsList = append(jobsList, job{docID: id, cat: categoryDeleted})
	}

	truncated := r.runPipeline(ctx, gateCtx, cfg, cls, jobsList, report)

	r.setState(driving.StateCommitting)
	report.Truncated = truncated
	report.Duration = time.Since(start)
	r.setState(driving.StateDone)
	r.endRun()

	logger.Info("Run %s complete: %d new, %d updated, %d deleted, %d unchanged, %d failed (truncated=%v)",
		report.RunID, report.New, report.Updated, report.Deleted, report.Unchanged, report.Failed, report.Truncated)

	return report, nil
}

// runPipeline fans the work list out to a bounded worker pool. gateCtx
// gates the start of new documents: external cancellation plus the
// optional soft deadline. Returns true when the run was cancelled
// before every job was started.
func (r *Reconciler) runPipeline(ctx, gateCtx context.Context, cfg domain.RunConfig, cls *Classification, work []job, report *domain.RunReport) bool {
	batcher := NewBatcher(r.chunker, r.embedder, cfg)
	writer := NewWriter(r.index, r.store, cfg)

	// In-flight documents finish their pipeline even after cancellation
	// so fingerprint commits stay atomic per document. Per-call timeouts
	// keep that bounded.
	callCtx := context.WithoutCancel(ctx)

	var reportMu sync.Mutex
	record := func(cat category, derr *domain.DocumentError) {
		reportMu.Lock()
		defer reportMu.Unlock()
		if derr != nil {
			report.Failed++
			report.Failures = append(report.Failures, *derr)
			r.bumpProgress(true)
			return
		}
		switch cat {
		case categoryNew:
			report.New++
		case categoryUpdated:
			report.Updated++
		case categoryDeleted:
			report.Deleted++
		}
		r.bumpProgress(false)
	}

	r.setState(driving.StateEmbedding)

	jobs := make(chan job)
	var wg sync.WaitGroup
	workers := cfg.EmbedConcurrency + cfg.WriteConcurrency
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				if jb.cat == categoryDeleted {
					record(jb.cat, writer.ApplyDelete(callCtx, cls.Prior[jb.docID]))
					continue
				}
				record(jb.cat, r.processDocument(callCtx, batcher, writer, cls, jb.docID))
			}
		}()
	}

	truncated := false
feed:
	for _, jb := range work {
		// Checked first so an expired gate never starts a document even
		// when a worker is already waiting on the channel.
		select {
		case <-gateCtx.Done():
			truncated = true
			break feed
		default:
		}
		select {
		case <-gateCtx.Done():
			truncated = true
			break feed
		case jobs <- jb:
		}
	}
	close(jobs)
	wg.Wait()

	if truncated {
		logger.Warn("Run cancelled before all documents were started")
	}
	return truncated
}

// processDocument runs one document's chunk, embed, write, commit
// pipeline. Chunk order is preserved end to end.
func (r *Reconciler) processDocument(ctx context.Context, batcher *Batcher, writer *Writer, cls *Classification, docID string) *domain.DocumentError {
	doc := cls.Docs[docID]
	logger.Debug("Processing: %s", docID)

	chunks, derr := batcher.EmbedDocument(ctx, doc)
	if derr != nil {
		return derr
	}

	return writer.ApplyUpsert(ctx, doc, cls.Hashes[docID], chunks, cls.Prior[docID])
}

// drainSource materialises the source enumeration. Classification needs
// a complete pass for non-delta modes, so the stream is collected here.
// Both channels are drained to the end: an enumeration error must
// surface even when the document channel closes first, otherwise a
// partial snapshot would be classified as complete and full mode would
// delete every document the walk never reached.
func (r *Reconciler) drainSource(ctx context.Context, since *time.Time) ([]domain.Document, error) {
	docsCh, errsCh := r.source.List(ctx, since)

	var snapshot []domain.Document
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}

		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			snapshot = append(snapshot, doc)
		}
	}
	return snapshot, nil
}

// Audit compares store and index point ids in both directions and
// returns sorted consistency warnings. Findings are never failures;
// self-healing happens on the next reconciliation of the document.
func (r *Reconciler) Audit(ctx context.Context) ([]string, error) {
	expected := make(map[string]string) // point id -> doc id
	ids, err := r.store.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fingerprint ids: %w", err)
	}
	for _, id := range ids {
		rec, err := r.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get fingerprint %s: %w", id, err)
		}
		for _, pid := range rec.PointIDs {
			expected[pid] = id
		}
	}

	present := make(map[string]struct{})
	pointsCh, errsCh := r.index.Scroll(ctx)
	for pointsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("scroll index: %w", err)
			}
		case pid, ok := <-pointsCh:
			if !ok {
				pointsCh = nil
				continue
			}
			present[pid] = struct{}{}
		}
	}

	var warnings []string
	for pid := range present {
		if _, ok := expected[pid]; !ok {
			warnings = append(warnings, fmt.Sprintf("orphaned point %s not referenced by any fingerprint record", pid))
		}
	}
	for pid, docID := range expected {
		if _, ok := present[pid]; !ok {
			warnings = append(warnings, fmt.Sprintf("document %s: point %s missing from index", docID, pid))
		}
	}
	sort.Strings(warnings)

	return warnings, nil
}

// Status returns a copy of the current run status.
func (r *Reconciler) Status() driving.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Reconciler) beginRun() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = driving.RunStatus{
		State:   driving.StateClassifying,
		Running: true,
	}
}

func (r *Reconciler) endRun() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Running = false
}

func (r *Reconciler) setState(state driving.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.State = state
}

func (r *Reconciler) bumpProgress(failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.DocumentsProcessed++
	if failed {
		r.status.ErrorCount++
	}
}
