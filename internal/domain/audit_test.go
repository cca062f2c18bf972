package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEvaluatorRunEntry(t *testing.T) {
	entry := NewEvaluatorRunEntry("e1", 2, 3)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, AuditActionEvaluatorRunCompleted, entry.Action)
	assert.Equal(t, AuditResourceEvaluator, entry.Type)
	assert.Equal(t, AuditActorSystem, entry.User)
	assert.Equal(t, "Ran evaluator 'e1' on 2/3 traces", entry.Details)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestNewEvaluatorRunEntry_ZeroExecuted(t *testing.T) {
	entry := NewEvaluatorRunEntry("e2", 0, 5)
	assert.Equal(t, "Ran evaluator 'e2' on 0/5 traces", entry.Details)
}
