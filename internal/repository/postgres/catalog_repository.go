package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// CatalogRepository handles evaluator catalog operations in PostgreSQL
type CatalogRepository struct {
	db *database.PostgresDB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.PostgresDB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Create creates a new evaluator
func (r *CatalogRepository) Create(ctx context.Context, eval *domain.Evaluator) error {
	query := `
		INSERT INTO evaluators (id, score_name, status, template_id, sampling_rate, delay_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		eval.ID,
		eval.ScoreName,
		eval.Status,
		eval.TemplateID,
		eval.Execution.SamplingRate,
		eval.Execution.DelayMs,
		eval.CreatedAt,
		eval.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluator: %w", err)
	}

	return nil
}

// GetByID retrieves an evaluator by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Evaluator, error) {
	query := `
		SELECT id, score_name, status, template_id, sampling_rate, delay_ms, created_at, updated_at
		FROM evaluators
		WHERE id = $1
	`

	var eval domain.Evaluator
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&eval.ID,
		&eval.ScoreName,
		&eval.Status,
		&eval.TemplateID,
		&eval.Execution.SamplingRate,
		&eval.Execution.DelayMs,
		&eval.CreatedAt,
		&eval.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("evaluator")
		}
		return nil, fmt.Errorf("failed to get evaluator: %w", err)
	}

	return &eval, nil
}

// ListRunnable retrieves all evaluators eligible for batch runs.
// A failure here is fatal to the calling batch, so it is wrapped as a
// catalog availability error.
func (r *CatalogRepository) ListRunnable(ctx context.Context) ([]domain.Evaluator, error) {
	query := `
		SELECT id, score_name, status, template_id, sampling_rate, delay_ms, created_at, updated_at
		FROM evaluators
		WHERE status IN ('active', 'enabled')
		ORDER BY id
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		metrics.RecordDBError("postgres", "catalog_list")
		return nil, apperrors.CatalogUnavailable(err)
	}
	defer rows.Close()

	var evaluators []domain.Evaluator
	for rows.Next() {
		var eval domain.Evaluator
		if err := rows.Scan(
			&eval.ID,
			&eval.ScoreName,
			&eval.Status,
			&eval.TemplateID,
			&eval.Execution.SamplingRate,
			&eval.Execution.DelayMs,
			&eval.CreatedAt,
			&eval.UpdatedAt,
		); err != nil {
			return nil, apperrors.CatalogUnavailable(err)
		}
		evaluators = append(evaluators, eval)
	}

	if err := rows.Err(); err != nil {
		metrics.RecordDBError("postgres", "catalog_list")
		return nil, apperrors.CatalogUnavailable(err)
	}
	metrics.RecordDBQuery("postgres", "catalog_list", time.Since(start))

	return evaluators, nil
}

// UpdateStatus updates the lifecycle status of an evaluator
func (r *CatalogRepository) UpdateStatus(ctx context.Context, id string, status domain.EvaluatorStatus) error {
	query := `
		UPDATE evaluators
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update evaluator status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("evaluator")
	}

	return nil
}

// Delete deletes an evaluator
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM evaluators WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete evaluator: %w", err)
	}

	return nil
}
