package indexer

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/conf"
	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/container/containertest"
	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

func getRun(t *testing.T, engine *datastore.Engine, runID string) *entities.IndexRun {
	t.Helper()
	ctx := context.Background()
	var run *entities.IndexRun
	err := engine.WithSession(ctx, func(s *datastore.Session) error {
		var err error
		run, err = s.IndexRuns().GetByRunID(ctx, runID)
		return err
	})
	require.NoError(t, err)
	return run
}

func TestRunFullIndexing_IndexesEverything(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheDir)

	ix, engine := setupIndexer(t)
	dir := t.TempDir()
	paths := writeContainers(t, dir, 3, 5)

	summary, err := ix.RunFullIndexing(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, entities.IndexRunCompleted, summary.Status)
	assert.Equal(t, 3, summary.DiscoveredFiles)
	assert.Equal(t, 3, summary.IndexedFiles)
	assert.Equal(t, 15, summary.TotalSyllables)
	assert.Equal(t, 3, summary.ChecksumsComputed)
	assert.Zero(t, summary.SkippedFiles)
	assert.Empty(t, summary.Errors)
	assert.NotEmpty(t, summary.RunID)

	recs, syls := countRows(t, engine)
	assert.Equal(t, int64(3), recs)
	assert.Equal(t, int64(15), syls)

	ctx := context.Background()
	hexDigest := regexp.MustCompile(`^[0-9a-f]{64}$`)
	err = engine.WithSession(ctx, func(s *datastore.Session) error {
		for _, p := range paths {
			rec, err := s.Recordings().GetByPath(ctx, p)
			if err != nil {
				return err
			}
			assert.Regexp(t, hexDigest, rec.Checksum, "recording %s", p)
			n, err := s.Syllables().CountByRecording(ctx, rec.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(5), n, "recording %s", p)
		}
		return nil
	})
	require.NoError(t, err)

	run := getRun(t, engine, summary.RunID)
	assert.Equal(t, entities.IndexRunCompleted, run.State)
	assert.Equal(t, 15, run.TotalSyllables)
	assert.NotNil(t, run.CompletedAt)

	// the data root is left untouched; the lock lives in the cache dir and
	// is released after the run
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err))
	lockPath := ix.lockPath()
	assert.True(t, strings.HasPrefix(lockPath, cacheDir), lockPath)
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, fl.Unlock())
}

func TestIndexer_DefaultLockPathPerCatalog(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	first, _ := setupIndexer(t)
	second, _ := setupIndexer(t)
	assert.NotEqual(t, first.lockPath(), second.lockPath())
	assert.Equal(t, first.lockPath(), first.lockPath())

	explicit, _ := setupIndexer(t, WithLockDir("/run/catalog"))
	assert.Equal(t, filepath.Join("/run/catalog", lockFileName), explicit.lockPath())
}

func TestRunFullIndexing_StoresSyllableBounds(t *testing.T) {
	ix, engine := setupIndexer(t)
	dir := t.TempDir()
	paths := writeContainers(t, dir, 1, 4)

	_, err := ix.RunFullIndexing(context.Background(), dir)
	require.NoError(t, err)

	ctx := context.Background()
	err = engine.WithSession(ctx, func(s *datastore.Session) error {
		rec, err := s.Recordings().GetByPath(ctx, paths[0])
		if err != nil {
			return err
		}
		assert.Len(t, rec.Checksum, 64)
		assert.InDelta(t, 4, rec.Metadata["num_syllables"], 0)

		syls, err := s.Syllables().GetByRecording(ctx, rec.ID)
		if err != nil {
			return err
		}
		require.Len(t, syls, 4)
		for i, syl := range syls {
			assert.InDelta(t, float64(i)*0.1, syl.StartTime, 1e-9)
			assert.InDelta(t, float64(i+1)*0.1, syl.EndTime, 1e-9)
			assert.Equal(t, paths[0], syl.SpectrogramPath)
			assert.InDelta(t, i, syl.BoundsMetadata["batch_index"], 0)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRunFullIndexing_RerunSkipsUnchanged(t *testing.T) {
	ix, engine := setupIndexer(t)
	dir := t.TempDir()
	writeContainers(t, dir, 3, 5)
	ctx := context.Background()

	_, err := ix.RunFullIndexing(ctx, dir)
	require.NoError(t, err)

	summary, err := ix.RunFullIndexing(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, entities.IndexRunCompleted, summary.Status)
	assert.Zero(t, summary.IndexedFiles)
	assert.Equal(t, 3, summary.SkippedFiles)
	assert.Zero(t, summary.TotalSyllables)

	recs, syls := countRows(t, engine)
	assert.Equal(t, int64(3), recs)
	assert.Equal(t, int64(15), syls)
}

func TestRunFullIndexing_ChangedContentFails(t *testing.T) {
	ix, engine := setupIndexer(t)
	dir := t.TempDir()
	paths := writeContainers(t, dir, 2, 5)
	ctx := context.Background()

	_, err := ix.RunFullIndexing(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, containertest.Write(paths[1], containertest.Segments(7, 0.2)))
	writeContainers(t, filepath.Join(dir, "new"), 1, 2)

	summary, err := ix.RunFullIndexing(ctx, dir)
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	assert.Contains(t, err.Error(), paths[1])

	require.NotNil(t, summary)
	assert.Equal(t, entities.IndexRunFailed, summary.Status)
	require.Len(t, summary.Errors, 1)

	run := getRun(t, engine, summary.RunID)
	assert.Equal(t, entities.IndexRunFailed, run.State)
	assert.Contains(t, run.ErrorMessage, paths[1])

	// the new container in the failed batch was rolled back
	recs, syls := countRows(t, engine)
	assert.Equal(t, int64(2), recs)
	assert.Equal(t, int64(10), syls)
}

func TestRunFullIndexing_CorruptContainerRollsBackBatch(t *testing.T) {
	ix, engine := setupIndexer(t)
	dir := t.TempDir()
	writeContainers(t, dir, 2, 5)

	broken := filepath.Join(dir, "zz", "broken.h5")
	fx := containertest.Segments(3, 0.1)
	fx.AudioFilenames = nil
	require.NoError(t, containertest.Write(broken, fx))

	summary, err := ix.RunFullIndexing(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.IsExtraction(err))
	assert.ErrorIs(t, err, container.ErrMissingDatasets)
	assert.Contains(t, err.Error(), broken)
	assert.Contains(t, err.Error(), "audio_filenames")
	assert.Equal(t, entities.IndexRunFailed, summary.Status)

	recs, syls := countRows(t, engine)
	assert.Zero(t, recs, "no partial recordings may survive a failed batch")
	assert.Zero(t, syls)
}

func TestRunFullIndexing_EmptyDirectory(t *testing.T) {
	ix, engine := setupIndexer(t)

	summary, err := ix.RunFullIndexing(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, entities.IndexRunCompleted, summary.Status)
	assert.Zero(t, summary.IndexedFiles)
	assert.Zero(t, summary.TotalSyllables)
	assert.Zero(t, summary.ChecksumsComputed)
	assert.Empty(t, summary.Errors)

	assert.Equal(t, entities.IndexRunCompleted, getRun(t, engine, summary.RunID).State)
}

func TestRunFullIndexing_MissingDirectory(t *testing.T) {
	ix, _ := setupIndexer(t)

	summary, err := ix.RunFullIndexing(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.IsNotFound(err))
}

func TestRunFullIndexing_LockHeld(t *testing.T) {
	lockDir := t.TempDir()
	ix, _ := setupIndexer(t, WithLockDir(lockDir))
	dir := t.TempDir()
	writeContainers(t, dir, 1, 1)

	holder := flock.New(filepath.Join(lockDir, lockFileName))
	ok, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = holder.Unlock() }()

	_, err = ix.RunFullIndexing(context.Background(), dir)
	require.ErrorIs(t, err, ErrIndexingInProgress)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestRunFullIndexing_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	im, err := metrics.NewIndexerMetrics(registry)
	require.NoError(t, err)

	ix, _ := setupIndexer(t, WithMetrics(im))
	dir := t.TempDir()
	writeContainers(t, dir, 2, 3)

	_, err = ix.RunFullIndexing(context.Background(), dir)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(registry, "catalog_indexer_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 4, n, "one series per completed stage")

	n, err = testutil.GatherAndCount(registry, "catalog_indexer_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunTracker_RejectsOutOfOrderTransition(t *testing.T) {
	ix := New(conf.Default(), nil)
	tr := &runTracker{ix: ix, summary: &Summary{Status: entities.IndexRunDiscovering}, log: ix.log}

	err := tr.advance(context.Background(), entities.IndexRunPopulating)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Equal(t, entities.IndexRunDiscovering, tr.summary.Status)
}
