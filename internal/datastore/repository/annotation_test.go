package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

func TestAnnotationRepository_BulkCreateAndQuery(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 1}, [2]float64{1, 2})
	repo := NewAnnotationRepository(db)
	ctx := context.Background()

	created, err := repo.BulkCreate(ctx, []AnnotationSpec{
		{SyllableID: syls[0].ID, AnnotationType: "label", Key: "species", Value: "zebra_finch"},
		{SyllableID: syls[0].ID, AnnotationType: "label", Key: "call_type", Value: "song"},
		{SyllableID: syls[1].ID, AnnotationType: "label", Key: "species", Value: "canary"},
		{SyllableID: syls[0].ID, AnnotationType: "cluster", Key: "hdbscan", Value: "4"},
	})
	require.NoError(t, err)
	require.Len(t, created, 4)
	for _, a := range created {
		assert.NotZero(t, a.ID)
	}

	species, err := repo.FilterByTypeAndKey(ctx, "label", "species")
	require.NoError(t, err)
	require.Len(t, species, 2)
	assert.Equal(t, "zebra_finch", species[0].Value)
	assert.Equal(t, "canary", species[1].Value)

	bySyl, err := repo.GetBySyllable(ctx, syls[0].ID)
	require.NoError(t, err)
	require.Len(t, bySyl, 3)
	assert.Equal(t, "cluster", bySyl[0].AnnotationType)
	assert.Equal(t, "call_type", bySyl[1].Key)
	assert.Equal(t, "species", bySyl[2].Key)
}

func TestAnnotationRepository_RejectsMissingKey(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 1})

	_, err := NewAnnotationRepository(db).BulkCreate(context.Background(), []AnnotationSpec{
		{SyllableID: syls[0].ID, AnnotationType: "label", Key: ""},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnnotationRepository_UnknownSyllable(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 1})

	_, err := NewAnnotationRepository(db).BulkCreate(context.Background(), []AnnotationSpec{
		{SyllableID: syls[0].ID, AnnotationType: "label", Key: "species", Value: "zebra_finch"},
		{SyllableID: 4242, AnnotationType: "label", Key: "species", Value: "canary"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.True(t, errors.IsIntegrity(err))

	var count int64
	require.NoError(t, db.Model(&entities.Annotation{}).Count(&count).Error)
	assert.Zero(t, count)
}
