package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalpipe/evalpipe/internal/domain"
)

func TestAuditRepository_Create(t *testing.T) {
	db := getTestSQLX(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	ctx := context.Background()

	entry := domain.NewEvaluatorRunEntry("test-eval", 2, 3)
	err := repo.Create(ctx, entry)
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, domain.AuditActionEvaluatorRunCompleted, fetched.Action)
	assert.Equal(t, domain.AuditResourceEvaluator, fetched.Type)
	assert.Equal(t, domain.AuditActorSystem, fetched.User)
	assert.Equal(t, "Ran evaluator 'test-eval' on 2/3 traces", fetched.Details)
}

func TestAuditRepository_Create_FillsDefaults(t *testing.T) {
	db := getTestSQLX(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	ctx := context.Background()

	entry := &domain.AuditEntry{
		Action:  domain.AuditActionEvaluatorRunCompleted,
		Type:    domain.AuditResourceEvaluator,
		User:    domain.AuditActorSystem,
		Details: "Ran evaluator 'x' on 0/0 traces",
	}
	err := repo.Create(ctx, entry)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditRepository_GetByID_NotFound(t *testing.T) {
	db := getTestSQLX(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAuditRepository(db)

	fetched, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestAuditRepository_ListRecent(t *testing.T) {
	db := getTestSQLX(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, domain.NewEvaluatorRunEntry("test-list", i, 3)))
	}

	entries, err := repo.ListRecent(ctx, string(domain.AuditResourceEvaluator), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 3)
}

func TestAuditRepository_DeleteBefore(t *testing.T) {
	db := getTestSQLX(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	ctx := context.Background()

	old := domain.NewEvaluatorRunEntry("test-prune", 1, 1)
	old.CreatedAt = time.Now().UTC().Add(-365 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, old))

	deleted, err := repo.DeleteBefore(ctx, time.Now().UTC().Add(-180*24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	fetched, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}
