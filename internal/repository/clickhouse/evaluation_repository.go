package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// EvaluationRepository handles evaluation record operations in ClickHouse
type EvaluationRepository struct {
	db *database.ClickHouseDB
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *database.ClickHouseDB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Exists reports whether an evaluation record already exists for the
// given eval id. An absent record is the normal negative, not an
// error; a query failure is wrapped as a store availability error so
// the caller can skip the unit defensively.
func (r *EvaluationRepository) Exists(ctx context.Context, evalID, traceID string) (bool, error) {
	query := `
		SELECT count() FROM evaluations FINAL
		WHERE trace_id = ? AND id = ?
	`

	start := time.Now()
	var count uint64
	row := r.db.QueryRow(ctx, query, traceID, evalID)
	if err := row.Scan(&count); err != nil {
		metrics.RecordDBError("clickhouse", "evaluation_exists")
		return false, apperrors.StoreUnavailable(err)
	}
	metrics.RecordDBQuery("clickhouse", "evaluation_exists", time.Since(start))

	return count > 0, nil
}

// Upsert writes an evaluation record. The table is a
// ReplacingMergeTree keyed on (trace_id, id), so writing the same eval
// id twice converges to a single row.
func (r *EvaluationRepository) Upsert(ctx context.Context, eval *domain.Evaluation) error {
	query := `
		INSERT INTO evaluations (
			id, trace_id, evaluator_id, evaluator_name, template_id,
			score, classification, raw_output, status, duration_ms, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	start := time.Now()
	err := r.db.Exec(ctx, query,
		eval.ID,
		eval.TraceID,
		eval.EvaluatorID,
		eval.EvaluatorName,
		eval.TemplateID,
		eval.Score,
		eval.Classification,
		eval.RawOutput,
		string(eval.Status),
		eval.DurationMs,
		eval.Timestamp,
	)
	if err != nil {
		metrics.RecordDBError("clickhouse", "evaluation_upsert")
		return fmt.Errorf("failed to upsert evaluation: %w", err)
	}
	metrics.RecordDBQuery("clickhouse", "evaluation_upsert", time.Since(start))

	return nil
}

// GetByTraceID retrieves all evaluation records for a trace
func (r *EvaluationRepository) GetByTraceID(ctx context.Context, traceID string) ([]domain.Evaluation, error) {
	query := `
		SELECT
			id, trace_id, evaluator_id, evaluator_name, template_id,
			score, classification, raw_output, status, duration_ms, timestamp
		FROM evaluations FINAL
		WHERE trace_id = ?
		ORDER BY timestamp DESC
	`

	var evals []domain.Evaluation
	if err := r.db.Select(ctx, &evals, query, traceID); err != nil {
		return nil, err
	}

	return evals, nil
}

// CountByEvaluator returns the number of persisted evaluations for an
// evaluator, split by status.
func (r *EvaluationRepository) CountByEvaluator(ctx context.Context, evaluatorID string) (completed, failed uint64, err error) {
	query := `
		SELECT
			countIf(status = 'completed') AS completed,
			countIf(status = 'failed') AS failed
		FROM evaluations FINAL
		WHERE evaluator_id = ?
	`

	row := r.db.QueryRow(ctx, query, evaluatorID)
	if err := row.Scan(&completed, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count evaluations: %w", err)
	}

	return completed, failed, nil
}
