package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// AuditRepository persists audit log entries in PostgreSQL
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (id, action, resource_type, actor, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Action, entry.Type, entry.User, entry.Details, entry.CreatedAt)
	if err != nil {
		metrics.RecordDBError("postgres", "audit_create")
		return err
	}
	metrics.RecordDBQuery("postgres", "audit_create", time.Since(start))
	return nil
}

// GetByID retrieves a single audit log entry
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	var entry domain.AuditEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT id, action, resource_type, actor, details, created_at
		FROM audit_log
		WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListRecent retrieves the most recent audit log entries for a resource type
func (r *AuditRepository) ListRecent(ctx context.Context, resourceType string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}

	var entries []domain.AuditEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, action, resource_type, actor, details, created_at
		FROM audit_log
		WHERE resource_type = $1
		ORDER BY created_at DESC
		LIMIT $2`, resourceType, limit)
	return entries, err
}

// DeleteBefore deletes audit log entries older than the specified time
func (r *AuditRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE created_at < $1", before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
