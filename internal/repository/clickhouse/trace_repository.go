package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// TraceRepository handles trace reads from ClickHouse
type TraceRepository struct {
	db *database.ClickHouseDB
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(db *database.ClickHouseDB) *TraceRepository {
	return &TraceRepository{db: db}
}

// GetByIDs retrieves the traces of a batch. Traces not found are
// silently absent from the result; the caller decides how to handle
// missing ids.
func (r *TraceRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Trace, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, trace_id, input, question, context, output, answer, metadata, created_at
		FROM traces FINAL
		WHERE id IN (?) OR trace_id IN (?)
	`

	start := time.Now()
	var traces []domain.Trace
	if err := r.db.Select(ctx, &traces, query, ids, ids); err != nil {
		metrics.RecordDBError("clickhouse", "trace_get_by_ids")
		return nil, fmt.Errorf("failed to get traces: %w", err)
	}
	metrics.RecordDBQuery("clickhouse", "trace_get_by_ids", time.Since(start))

	return traces, nil
}

// GetByID retrieves a single trace
func (r *TraceRepository) GetByID(ctx context.Context, id string) (*domain.Trace, error) {
	query := `
		SELECT id, trace_id, input, question, context, output, answer, metadata, created_at
		FROM traces FINAL
		WHERE id = ? OR trace_id = ?
		LIMIT 1
	`

	var trace domain.Trace
	row := r.db.QueryRow(ctx, query, id, id)
	err := row.Scan(
		&trace.ID,
		&trace.TraceID,
		&trace.Input,
		&trace.Question,
		&trace.Context,
		&trace.Output,
		&trace.Answer,
		&trace.Metadata,
		&trace.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &trace, nil
}

// CreateBatch inserts traces. Used by test seeding and backfill
// tooling; the ingestion path writes traces elsewhere.
func (r *TraceRepository) CreateBatch(ctx context.Context, traces []*domain.Trace) error {
	if len(traces) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `
		INSERT INTO traces (id, trace_id, input, question, context, output, answer, metadata, created_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, trace := range traces {
		if err := batch.Append(
			trace.ID,
			trace.TraceID,
			trace.Input,
			trace.Question,
			trace.Context,
			trace.Output,
			trace.Answer,
			trace.Metadata,
			trace.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}
