package export

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/datastore/repository"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

func openEngine(t *testing.T, name string) *datastore.Engine {
	t.Helper()
	engine, err := datastore.NewEngine("sqlite://" + filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// seedCatalog writes recordings with syllables and one embedding, annotation
// and index run each.
func seedCatalog(t *testing.T, engine *datastore.Engine, recordings, perRecording int) {
	t.Helper()
	ctx := context.Background()

	err := engine.WithSession(ctx, func(s *datastore.Session) error {
		var specs []repository.SyllableSpec
		for i := range recordings {
			path := fmt.Sprintf("/data/features/bird%d.h5", i)
			rec, err := s.Recordings().Create(ctx, path, fmt.Sprintf("%064x", i), map[string]any{"file_type": "hdf5"})
			if err != nil {
				return err
			}
			for j := range perRecording {
				start := float64(j) * 0.5
				specs = append(specs, repository.SyllableSpec{
					RecordingID:     rec.ID,
					SpectrogramPath: fmt.Sprintf("%s#%d", path, j),
					StartTime:       start,
					EndTime:         start + 0.25,
				})
			}
		}
		syllables, err := s.Syllables().BulkCreate(ctx, specs)
		if err != nil {
			return err
		}

		if _, err := s.Embeddings().Create(ctx, repository.EmbeddingSpec{
			SyllableID:    syllables[0].ID,
			ModelVersion:  "vae-v1",
			EmbeddingPath: "/data/embeddings/0.npy",
			Dimensions:    32,
		}); err != nil {
			return err
		}
		if _, err := s.Annotations().BulkCreate(ctx, []repository.AnnotationSpec{
			{SyllableID: syllables[0].ID, AnnotationType: "label", Key: "call_type", Value: "song"},
		}); err != nil {
			return err
		}
		_, err = s.IndexRuns().Create(ctx, "run-1", "/data/features")
		return err
	})
	require.NoError(t, err)
}

func tableStats(stats *Stats, name string) TableStats {
	for _, ts := range stats.Tables {
		if ts.Name == name {
			return ts
		}
	}
	return TableStats{}
}

func TestCopier_CopiesAndVerifies(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")
	seedCatalog(t, source, 3, 4)

	copier, err := New(source, target, Options{BatchSize: 5}, nil)
	require.NoError(t, err)

	stats, err := copier.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.Tables, 5)
	assert.Equal(t, int64(3), tableStats(stats, "recordings").Copied)
	assert.Equal(t, int64(12), tableStats(stats, "syllables").Copied)
	assert.Equal(t, int64(1), tableStats(stats, "embeddings").Copied)
	assert.Equal(t, int64(1), tableStats(stats, "annotations").Copied)
	assert.Equal(t, int64(1), tableStats(stats, "index_runs").Copied)

	copied, skipped, failed := stats.Totals()
	assert.Equal(t, int64(18), copied)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)

	checks, err := copier.Verify(context.Background())
	require.NoError(t, err)
	for _, c := range checks {
		assert.True(t, c.Match(), "table %s", c.Table)
	}

	// IDs are preserved
	var rec entities.Recording
	require.NoError(t, target.DB().First(&rec, "file_path = ?", "/data/features/bird2.h5").Error)
	var srcRec entities.Recording
	require.NoError(t, source.DB().First(&srcRec, "file_path = ?", "/data/features/bird2.h5").Error)
	assert.Equal(t, srcRec.ID, rec.ID)
	assert.Equal(t, "hdf5", rec.Metadata["file_type"])
}

func TestCopier_RerunSkipsExistingRows(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")
	seedCatalog(t, source, 2, 3)

	copier, err := New(source, target, Options{}, nil)
	require.NoError(t, err)

	_, err = copier.Run(context.Background())
	require.NoError(t, err)

	stats, err := copier.Run(context.Background())
	require.NoError(t, err)
	copied, skipped, _ := stats.Totals()
	assert.Zero(t, copied)
	assert.Equal(t, int64(2+6+1+1+1), skipped)
}

func TestCopier_CleanReplacesTargetRows(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")
	seedCatalog(t, source, 1, 2)
	seedCatalog(t, target, 2, 2)

	copier, err := New(source, target, Options{Clean: true}, nil)
	require.NoError(t, err)

	_, err = copier.Run(context.Background())
	require.NoError(t, err)

	checks, err := copier.Verify(context.Background())
	require.NoError(t, err)
	assert.Len(t, checks, 5)

	var count int64
	require.NoError(t, target.DB().Model(&entities.Recording{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCopier_VerifyDetectsMissingRows(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")
	seedCatalog(t, source, 2, 2)

	copier, err := New(source, target, Options{}, nil)
	require.NoError(t, err)
	_, err = copier.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, target.DB().Where("id = ?", 1).Delete(&entities.Annotation{}).Error)

	checks, err := copier.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	require.Len(t, checks, 5)
	for _, c := range checks {
		if c.Table == "annotations" {
			assert.False(t, c.Match())
		}
	}
}

func TestCopier_ConflictingFilePathFailsRun(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")
	seedCatalog(t, source, 2, 2)

	// same path as source recording 1, different ID
	require.NoError(t, target.DB().Create(&entities.Recording{
		ID:       9,
		FilePath: "/data/features/bird0.h5",
		Checksum: fmt.Sprintf("%064x", 99),
	}).Error)

	copier, err := New(source, target, Options{}, nil)
	require.NoError(t, err)

	stats, err := copier.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	require.NotNil(t, stats)
	require.Len(t, stats.Tables, 5)

	recordings := tableStats(stats, "recordings")
	assert.Equal(t, int64(1), recordings.Copied)
	assert.Zero(t, recordings.Skipped)
	assert.Equal(t, int64(1), recordings.Errors)

	_, _, failed := stats.Totals()
	assert.Positive(t, failed)

	var count int64
	require.NoError(t, target.DB().Model(&entities.Recording{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestNew_RejectsBatchSize(t *testing.T) {
	source := openEngine(t, "source.db")
	target := openEngine(t, "target.db")

	for _, size := range []int{-1, MaxBatchSize + 1} {
		_, err := New(source, target, Options{BatchSize: size}, nil)
		require.Error(t, err, "batch size %d", size)
		assert.True(t, errors.IsValidation(err))
	}
}
