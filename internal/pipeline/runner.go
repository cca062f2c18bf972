// Package pipeline orchestrates batch evaluation runs: for every
// runnable evaluator and every trace in a delivered batch, it scores
// the pair exactly once and records the result.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/evalpipe/evalpipe/internal/domain"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/pkg/logger"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
	"github.com/evalpipe/evalpipe/internal/scoring"
)

// CatalogLoader loads the evaluators eligible for a batch run.
type CatalogLoader interface {
	ListRunnable(ctx context.Context) ([]domain.Evaluator, error)
}

// EvaluationStore reads and writes evaluation records.
type EvaluationStore interface {
	Exists(ctx context.Context, evalID, traceID string) (bool, error)
	Upsert(ctx context.Context, eval *domain.Evaluation) error
}

// AuditSink records per-evaluator run summaries.
type AuditSink interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

// Scorer resolves template ids and runs scoring capabilities.
type Scorer interface {
	Resolve(templateID string) (scoring.Capability, error)
	Invoke(ctx context.Context, templateID string, trace domain.NormalizedTrace) (scoring.Outcome, error)
}

// Runner executes evaluation batches.
type Runner struct {
	catalog     CatalogLoader
	store       EvaluationStore
	audit       AuditSink
	scorer      Scorer
	sampler     *Sampler
	concurrency int
}

// NewRunner creates a batch runner. concurrency bounds how many units
// of one evaluator are in flight at once.
func NewRunner(catalog CatalogLoader, store EvaluationStore, audit AuditSink, scorer Scorer, sampler *Sampler, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		catalog:     catalog,
		store:       store,
		audit:       audit,
		scorer:      scorer,
		sampler:     sampler,
		concurrency: concurrency,
	}
}

// Run evaluates every runnable evaluator against every trace in the
// batch. Batches are delivered at least once; the read-before-write
// check in runUnit keeps redelivery from producing duplicate records.
// The only fatal error is a catalog load failure, which is returned so
// the delivery layer retries the whole batch.
func (r *Runner) Run(ctx context.Context, batchID string, traces []domain.Trace) error {
	log := logger.WithBatchID(batchID)

	if len(traces) == 0 {
		log.Warn("batch contains no traces")
		metrics.RecordBatchRun("empty")
		return nil
	}

	evaluators, err := r.catalog.ListRunnable(ctx)
	if err != nil {
		log.Error("failed to load evaluator catalog", zap.Error(err))
		metrics.RecordBatchRun("aborted")
		if apperrors.IsCatalogUnavailable(err) {
			return err
		}
		return apperrors.CatalogUnavailable(err)
	}

	log.Info("starting batch run",
		zap.Int("traces", len(traces)),
		zap.Int("evaluators", len(evaluators)),
	)

	for i := range evaluators {
		r.runEvaluator(ctx, log, &evaluators[i], traces)
	}

	metrics.RecordBatchRun("completed")
	log.Info("batch run completed")
	return nil
}

// runEvaluator runs one evaluator over the whole batch and writes its
// audit summary. Evaluators are isolated from each other: nothing in
// here aborts the batch.
func (r *Runner) runEvaluator(ctx context.Context, log *zap.Logger, eval *domain.Evaluator, traces []domain.Trace) {
	elog := log.With(zap.String("evaluator_id", eval.ID))

	if err := eval.Validate(); err != nil {
		elog.Warn("skipping evaluator with incomplete configuration", zap.Error(err))
		metrics.RecordUnit(eval.ID, metrics.UnitConfigSkipped)
		return
	}

	if _, err := r.scorer.Resolve(eval.TemplateID); err != nil {
		elog.Warn("skipping evaluator with unresolved template",
			zap.String("template_id", eval.TemplateID),
			zap.Error(err),
		)
		metrics.RecordUnit(eval.ID, metrics.UnitConfigSkipped)
		return
	}

	var executed atomic.Int64
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i := range traces {
		trace := &traces[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if r.runUnit(ctx, elog, eval, trace) {
				executed.Add(1)
			}
		}()
	}

	wg.Wait()

	entry := domain.NewEvaluatorRunEntry(eval.ID, int(executed.Load()), len(traces))
	if err := r.audit.Create(ctx, entry); err != nil {
		elog.Error("failed to write audit entry", zap.Error(err))
	}

	elog.Info("evaluator run completed",
		zap.Int64("executed", executed.Load()),
		zap.Int("total", len(traces)),
	)
}

// runUnit evaluates one (evaluator, trace) pair. Returns true only
// when a record was persisted during this run.
func (r *Runner) runUnit(ctx context.Context, log *zap.Logger, eval *domain.Evaluator, trace *domain.Trace) bool {
	traceID := trace.Key()
	if traceID == "" {
		log.Warn("skipping trace without an id")
		return false
	}
	ulog := log.With(zap.String("trace_id", traceID))

	if !r.sampler.ShouldRun(eval.Execution.EffectiveSamplingRate()) {
		metrics.RecordUnit(eval.ID, metrics.UnitSampledOut)
		return false
	}

	evalID := domain.EvalID(traceID, eval.ID)

	if !r.wait(ctx, eval.Execution.Delay()) {
		return false
	}

	exists, err := r.store.Exists(ctx, evalID, traceID)
	if err != nil {
		// Cannot tell whether the pair was already scored; skip the
		// unit rather than risk a duplicate on redelivery.
		ulog.Warn("evaluation existence check failed, skipping unit", zap.Error(err))
		metrics.RecordUnit(eval.ID, metrics.UnitCheckFailed)
		return false
	}
	if exists {
		metrics.RecordUnit(eval.ID, metrics.UnitIdempotentSkip)
		return false
	}

	start := time.Now()
	outcome, err := r.scorer.Invoke(ctx, eval.TemplateID, trace.Normalize())
	if err != nil {
		ulog.Warn("skipping unit with unresolved template", zap.Error(err))
		metrics.RecordUnit(eval.ID, metrics.UnitConfigSkipped)
		return false
	}

	record := &domain.Evaluation{
		ID:             evalID,
		TraceID:        traceID,
		EvaluatorID:    eval.ID,
		EvaluatorName:  eval.DisplayName(),
		TemplateID:     eval.TemplateID,
		Score:          outcome.Score,
		Classification: outcome.Classification,
		RawOutput:      outcome.RawOutput,
		Status:         domain.StatusForClassification(outcome.Classification),
		DurationMs:     time.Since(start).Milliseconds(),
		Timestamp:      time.Now().UTC(),
	}

	if err := r.store.Upsert(ctx, record); err != nil {
		ulog.Error("failed to persist evaluation", zap.Error(err))
		metrics.RecordUnit(eval.ID, metrics.UnitPersistFailed)
		return false
	}

	metrics.RecordUnit(eval.ID, metrics.UnitPersisted)
	return true
}

// wait blocks for the per-unit throttle delay, bailing out early when
// the batch context is cancelled.
func (r *Runner) wait(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
