package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionEvaluatorRunCompleted AuditAction = "Evaluator Run Completed"
)

// AuditResourceType represents the type of resource being audited
type AuditResourceType string

const (
	AuditResourceEvaluator AuditResourceType = "evaluator"
)

// AuditActorSystem is the actor recorded for pipeline-initiated entries.
const AuditActorSystem = "system"

// AuditEntry represents an audit log entry
type AuditEntry struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	Action    AuditAction       `json:"action" db:"action"`
	Type      AuditResourceType `json:"type" db:"resource_type"`
	User      string            `json:"user" db:"actor"`
	Details   string            `json:"details" db:"details"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}

// NewEvaluatorRunEntry builds the per-evaluator batch summary entry.
// The denominator is the number of traces in the delivered batch;
// executed counts only units persisted during this run.
func NewEvaluatorRunEntry(evaluatorID string, executed, total int) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		Action:    AuditActionEvaluatorRunCompleted,
		Type:      AuditResourceEvaluator,
		User:      AuditActorSystem,
		Details:   fmt.Sprintf("Ran evaluator '%s' on %d/%d traces", evaluatorID, executed, total),
		CreatedAt: time.Now().UTC(),
	}
}
