package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TypeAuditCleanup is the task type for audit log retention
	TypeAuditCleanup = "audit:cleanup"

	// defaultAuditRetention is how long audit entries are kept
	defaultAuditRetention = 90 * 24 * time.Hour
)

// AuditCleanupPayload is the payload for audit cleanup tasks
type AuditCleanupPayload struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// AuditPruner deletes audit entries older than a cutoff.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// CleanupWorker enforces audit log retention
type CleanupWorker struct {
	logger *zap.Logger
	audit  AuditPruner
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(logger *zap.Logger, audit AuditPruner) *CleanupWorker {
	return &CleanupWorker{
		logger: logger,
		audit:  audit,
	}
}

// ProcessTask deletes audit entries past their retention window
func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal audit cleanup payload: %w", err)
	}

	retention := defaultAuditRetention
	if payload.RetentionDays > 0 {
		retention = time.Duration(payload.RetentionDays) * 24 * time.Hour
	}

	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := w.audit.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune audit log: %w", err)
	}

	w.logger.Info("audit log pruned",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)

	return nil
}
