package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/pipeline"
)

const (
	// TypeBatchEvaluation is the task type for batch evaluation runs
	TypeBatchEvaluation = "eval:run-batch"
)

// BatchEvaluationPayload is the payload for batch evaluation tasks
type BatchEvaluationPayload struct {
	BatchID  string   `json:"batch_id"`
	TraceIDs []string `json:"trace_ids"`
}

// NewBatchEvaluationTask creates a batch evaluation task. Retries on
// the task level pair with the per-unit idempotency check: a redelivered
// batch re-runs safely.
func NewBatchEvaluationTask(payload *BatchEvaluationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch evaluation payload: %w", err)
	}
	return asynq.NewTask(TypeBatchEvaluation, data, asynq.MaxRetry(3), asynq.Timeout(30*time.Minute)), nil
}

// TraceSource loads the traces referenced by a batch.
type TraceSource interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Trace, error)
}

// EvalWorker handles batch evaluation tasks
type EvalWorker struct {
	logger *zap.Logger
	traces TraceSource
	runner *pipeline.Runner
}

// NewEvalWorker creates a new eval worker
func NewEvalWorker(
	logger *zap.Logger,
	traces TraceSource,
	runner *pipeline.Runner,
) *EvalWorker {
	return &EvalWorker{
		logger: logger,
		traces: traces,
		runner: runner,
	}
}

// ProcessBatchTask processes one batch evaluation task
func (w *EvalWorker) ProcessBatchTask(ctx context.Context, t *asynq.Task) error {
	var payload BatchEvaluationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal batch evaluation payload: %w", err)
	}

	w.logger.Info("processing evaluation batch",
		zap.String("batch_id", payload.BatchID),
		zap.Int("trace_ids", len(payload.TraceIDs)),
	)

	traces, err := w.traces.GetByIDs(ctx, payload.TraceIDs)
	if err != nil {
		return fmt.Errorf("failed to load batch traces: %w", err)
	}

	if len(traces) < len(payload.TraceIDs) {
		w.logger.Warn("some batch traces were not found",
			zap.String("batch_id", payload.BatchID),
			zap.Int("requested", len(payload.TraceIDs)),
			zap.Int("found", len(traces)),
		)
	}

	if err := w.runner.Run(ctx, payload.BatchID, traces); err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	return nil
}
