package clickhouse

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalpipe/evalpipe/internal/domain"
	"github.com/evalpipe/evalpipe/internal/testutil"
)

func TestTraceRepository_GetByIDs(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTraceRepository(db)
	ctx := context.Background()

	ids := []string{
		"test-trace-" + uuid.New().String()[:8],
		"test-trace-" + uuid.New().String()[:8],
	}
	traces := []*domain.Trace{
		testutil.NewTestTrace(ids[0]),
		testutil.NewTestTrace(ids[1]),
	}
	require.NoError(t, repo.CreateBatch(ctx, traces))

	// The missing id is silently absent from the result
	fetched, err := repo.GetByIDs(ctx, append(ids, "no-such-trace"))
	require.NoError(t, err)
	assert.Len(t, fetched, 2)
}

func TestTraceRepository_GetByIDs_Empty(t *testing.T) {
	repo := NewTraceRepository(nil)

	fetched, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestTraceRepository_GetByID(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewTraceRepository(db)
	ctx := context.Background()

	id := "test-trace-" + uuid.New().String()[:8]
	require.NoError(t, repo.CreateBatch(ctx, []*domain.Trace{testutil.NewTestTrace(id)}))

	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, fetched.ID)
	assert.NotEmpty(t, fetched.Input)
}
