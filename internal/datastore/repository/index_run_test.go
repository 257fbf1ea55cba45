package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

func TestIndexRunRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndexRunRepository(db)
	ctx := context.Background()

	run, err := repo.Create(ctx, "run-1", "/data")
	require.NoError(t, err)
	assert.Equal(t, entities.IndexRunDiscovering, run.State)
	assert.False(t, run.IsTerminal())

	require.NoError(t, repo.Update(ctx, "run-1", IndexRunUpdate{
		State: entities.IndexRunChecksumming, DiscoveredFiles: 3,
	}))

	got, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, entities.IndexRunChecksumming, got.State)
	assert.Equal(t, 3, got.DiscoveredFiles)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, repo.Finish(ctx, "run-1", IndexRunUpdate{
		State: entities.IndexRunCompleted, DiscoveredFiles: 3, IndexedFiles: 3, TotalSyllables: 15,
	}))

	got, err = repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.IsTerminal())
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 15, got.TotalSyllables)
	assert.GreaterOrEqual(t, got.Duration().Nanoseconds(), int64(0))
}

func TestIndexRunRepository_StateGuards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndexRunRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "run-1", "/data")
	require.NoError(t, err)

	err = repo.Update(ctx, "run-1", IndexRunUpdate{State: entities.IndexRunFailed})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = repo.Finish(ctx, "run-1", IndexRunUpdate{State: entities.IndexRunPopulating})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = repo.Update(ctx, "missing", IndexRunUpdate{State: entities.IndexRunValidating})
	require.ErrorIs(t, err, ErrIndexRunNotFound)

	_, err = repo.Create(ctx, "run-1", "/other")
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestIndexRunRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndexRunRepository(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, id, "/data")
		require.NoError(t, err)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
}
