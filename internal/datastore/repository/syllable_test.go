package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

func TestSyllableRepository_BulkCreateAssignsIDs(t *testing.T) {
	db := setupTestDB(t)
	rec, syls := seedRecording(t, db, "/d/a.h5", [2]float64{0, 0.5}, [2]float64{0.5, 0.9}, [2]float64{1.0, 1.2})

	require.Len(t, syls, 3)
	for _, s := range syls {
		assert.NotZero(t, s.ID)
		assert.Equal(t, rec.ID, s.RecordingID)
	}

	n, err := NewSyllableRepository(db).CountByRecording(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSyllableRepository_BulkCreateEmpty(t *testing.T) {
	db := setupTestDB(t)

	syls, err := NewSyllableRepository(db).BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, syls)
}

func TestSyllableRepository_BulkCreateRejectsInvertedBounds(t *testing.T) {
	db := setupTestDB(t)
	rec, _ := seedRecording(t, db, "/d/a.h5")

	_, err := NewSyllableRepository(db).BulkCreate(context.Background(), []SyllableSpec{
		{RecordingID: rec.ID, SpectrogramPath: "x", StartTime: 2, EndTime: 1},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, errors.IsValidation(err))
}

func TestSyllableRepository_CheckConstraintEnforcedByEngine(t *testing.T) {
	db := setupTestDB(t)
	rec, _ := seedRecording(t, db, "/d/a.h5")

	// Bypass repository validation to reach the table constraint.
	err := db.Create(&entities.Syllable{RecordingID: rec.ID, SpectrogramPath: "x", StartTime: 2, EndTime: 1}).Error
	require.Error(t, err)

	translated := translateError(err, "insert", tableSyllables)
	assert.ErrorIs(t, translated, ErrCheckConstraint)
	assert.True(t, errors.IsIntegrity(translated))
}

func TestSyllableRepository_ForeignKeyEnforced(t *testing.T) {
	db := setupTestDB(t)

	rec, _ := seedRecording(t, db, "/d/a.h5")
	repo := NewSyllableRepository(db)

	_, err := repo.BulkCreate(context.Background(), []SyllableSpec{
		{RecordingID: rec.ID, SpectrogramPath: "valid", StartTime: 0, EndTime: 1},
		{RecordingID: 9999, SpectrogramPath: "orphan", StartTime: 0, EndTime: 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.True(t, errors.IsIntegrity(err))

	var count int64
	require.NoError(t, db.Model(&entities.Syllable{}).Count(&count).Error)
	assert.Zero(t, count, "a rejected batch inserts nothing")
}

func TestSyllableRepository_GetByRecordingOrdering(t *testing.T) {
	db := setupTestDB(t)
	// Two syllables share a start time; id breaks the tie.
	rec, syls := seedRecording(t, db, "/d/a.h5",
		[2]float64{2.0, 2.5}, [2]float64{0.5, 1.0}, [2]float64{0.5, 0.7}, [2]float64{1.5, 1.6})
	seedRecording(t, db, "/d/other.h5", [2]float64{0, 1})

	repo := NewSyllableRepository(db)
	want := []uint{syls[1].ID, syls[2].ID, syls[3].ID, syls[0].ID}

	for range 5 {
		got, err := repo.GetByRecording(context.Background(), rec.ID)
		require.NoError(t, err)
		ids := make([]uint, len(got))
		for i := range got {
			ids[i] = got[i].ID
		}
		assert.Equal(t, want, ids)
	}
}

func TestSyllableRepository_FilterByDuration(t *testing.T) {
	db := setupTestDB(t)
	_, syls := seedRecording(t, db, "/d/a.h5",
		[2]float64{0, 0.05}, [2]float64{1.0, 1.2}, [2]float64{2.0, 3.0})
	repo := NewSyllableRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		min     float64
		max     *float64
		wantIDs []uint
	}{
		{"range includes 0.2s syllable", 0.15, ptr(1.0), []uint{syls[1].ID, syls[2].ID}},
		{"range below 0.2s syllable", 0.0, ptr(0.1), []uint{syls[0].ID}},
		{"open upper bound", 0.5, nil, []uint{syls[2].ID}},
		{"inclusive bounds", 1.0, ptr(1.0), []uint{syls[2].ID}},
		{"nothing matches", 5, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FilterByDuration(ctx, tt.min, tt.max)
			require.NoError(t, err)
			var ids []uint
			for i := range got {
				ids = append(ids, got[i].ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSyllableRepository_FilterByDurationRejectsBadRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyllableRepository(db)
	ctx := context.Background()

	_, err := repo.FilterByDuration(ctx, -1, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = repo.FilterByDuration(ctx, 1, ptr(0.5))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSyllableRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewSyllableRepository(db).GetByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrSyllableNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestRepositoryFilters_StableAcrossExecutions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, a := seedRecording(t, db, "/d/a.h5", [2]float64{1.0, 1.5}, [2]float64{0.2, 0.6}, [2]float64{0.2, 0.4})
	_, b := seedRecording(t, db, "/d/b.h5", [2]float64{0.2, 0.9}, [2]float64{3.0, 3.1})
	syls := append(a, b...)

	_, err := NewAnnotationRepository(db).BulkCreate(ctx, []AnnotationSpec{
		{SyllableID: syls[3].ID, AnnotationType: "label", Key: "species", Value: "canary"},
		{SyllableID: syls[0].ID, AnnotationType: "label", Key: "species", Value: "zebra_finch"},
		{SyllableID: syls[2].ID, AnnotationType: "label", Key: "species", Value: "zebra_finch"},
	})
	require.NoError(t, err)
	for _, i := range []int{4, 1, 2} {
		_, err := NewEmbeddingRepository(db).Create(ctx, EmbeddingSpec{
			SyllableID: syls[i].ID, ModelVersion: "umap-v1", EmbeddingPath: "/e.npy", Dimensions: 2,
		})
		require.NoError(t, err)
	}

	now := time.Now().UTC()
	queries := map[string]func() ([]uint, error){
		"syllables by duration": func() ([]uint, error) {
			rows, err := NewSyllableRepository(db).FilterByDuration(ctx, 0.1, ptr(1.0))
			return idsOf(rows, func(s *entities.Syllable) uint { return s.ID }), err
		},
		"annotations by type and key": func() ([]uint, error) {
			rows, err := NewAnnotationRepository(db).FilterByTypeAndKey(ctx, "label", "species")
			return idsOf(rows, func(a *entities.Annotation) uint { return a.ID }), err
		},
		"embeddings by model tag": func() ([]uint, error) {
			rows, err := NewEmbeddingRepository(db).FilterByModelTag(ctx, "umap-v1")
			return idsOf(rows, func(e *entities.Embedding) uint { return e.ID }), err
		},
		"recordings by created range": func() ([]uint, error) {
			rows, err := NewRecordingRepository(db).FilterByCreatedRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
			return idsOf(rows, func(r *entities.Recording) uint { return r.ID }), err
		},
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			want, err := query()
			require.NoError(t, err)
			require.NotEmpty(t, want)
			for range 4 {
				got, err := query()
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func idsOf[T any](rows []T, id func(*T) uint) []uint {
	out := make([]uint, len(rows))
	for i := range rows {
		out[i] = id(&rows[i])
	}
	return out
}
