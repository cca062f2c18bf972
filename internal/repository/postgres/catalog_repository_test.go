package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalpipe/evalpipe/internal/domain"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/testutil"
)

func TestCatalogRepository_CreateAndGet(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCatalogRepository(db)
	ctx := context.Background()

	id := "test-eval-" + uuid.New().String()[:8]
	eval := testutil.NewTestEvaluator(id, "relevance")
	defer cleanupEvaluators(t, db, id)

	err := repo.Create(ctx, eval)
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, eval.ID, fetched.ID)
	assert.Equal(t, eval.TemplateID, fetched.TemplateID)
	assert.Equal(t, eval.Status, fetched.Status)
	assert.Equal(t, eval.Execution.SamplingRate, fetched.Execution.SamplingRate)
}

func TestCatalogRepository_GetByID_NotFound(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCatalogRepository(db)

	_, err := repo.GetByID(context.Background(), "no-such-evaluator")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogRepository_ListRunnable(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCatalogRepository(db)
	ctx := context.Background()

	active := testutil.NewTestEvaluator("test-active-"+uuid.New().String()[:8], "relevance")
	paused := testutil.NewTestEvaluator("test-paused-"+uuid.New().String()[:8], "relevance")
	paused.Status = domain.EvaluatorStatusPaused
	defer cleanupEvaluators(t, db, active.ID, paused.ID)

	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, paused))

	evaluators, err := repo.ListRunnable(ctx)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, e := range evaluators {
		ids[e.ID] = true
		assert.True(t, e.Status.Runnable())
	}
	assert.True(t, ids[active.ID])
	assert.False(t, ids[paused.ID])
}

func TestCatalogRepository_UpdateStatus(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewCatalogRepository(db)
	ctx := context.Background()

	eval := testutil.NewTestEvaluator("test-status-"+uuid.New().String()[:8], "relevance")
	defer cleanupEvaluators(t, db, eval.ID)
	require.NoError(t, repo.Create(ctx, eval))

	err := repo.UpdateStatus(ctx, eval.ID, domain.EvaluatorStatusPaused)
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, eval.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EvaluatorStatusPaused, fetched.Status)

	err = repo.UpdateStatus(ctx, "no-such-evaluator", domain.EvaluatorStatusPaused)
	assert.True(t, apperrors.IsNotFound(err))
}
