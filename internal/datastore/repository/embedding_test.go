package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

func TestEmbeddingRepository_CreateAndFilter(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 1}, [2]float64{1, 2})
	repo := NewEmbeddingRepository(db)
	ctx := context.Background()

	specs := []EmbeddingSpec{
		{SyllableID: syls[1].ID, ModelVersion: "umap-v2", EmbeddingPath: "/e/1.npy", Dimensions: 32},
		{SyllableID: syls[0].ID, ModelVersion: "umap-v2", EmbeddingPath: "/e/0.npy", Dimensions: 32},
		{SyllableID: syls[0].ID, ModelVersion: "ae-v1", EmbeddingPath: "/e/0b.npy", Dimensions: 64,
			ModelMetadata: map[string]any{"epochs": 10}},
	}
	for _, s := range specs {
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}

	byModel, err := repo.FilterByModelTag(ctx, "umap-v2")
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, syls[0].ID, byModel[0].SyllableID)
	assert.Equal(t, syls[1].ID, byModel[1].SyllableID)

	bySyl, err := repo.GetBySyllable(ctx, syls[0].ID)
	require.NoError(t, err)
	require.Len(t, bySyl, 2)
	assert.Equal(t, "ae-v1", bySyl[0].ModelVersion)
	assert.Equal(t, "umap-v2", bySyl[1].ModelVersion)
	assert.InDelta(t, 10, bySyl[0].ModelMetadata["epochs"], 0)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestEmbeddingRepository_RejectsNonPositiveDimensions(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 1})

	_, err := NewEmbeddingRepository(db).Create(context.Background(), EmbeddingSpec{
		SyllableID: syls[0].ID, ModelVersion: "v1", EmbeddingPath: "/e.npy", Dimensions: 0,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEmbeddingRepository_UnknownSyllable(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewEmbeddingRepository(db).Create(context.Background(), EmbeddingSpec{
		SyllableID: 77, ModelVersion: "v1", EmbeddingPath: "/e.npy", Dimensions: 8,
	})
	require.ErrorIs(t, err, ErrForeignKey)
	assert.True(t, errors.IsIntegrity(err))

	var count int64
	require.NoError(t, db.Model(&entities.Embedding{}).Count(&count).Error)
	assert.Zero(t, count)
}
