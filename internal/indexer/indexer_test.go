package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/syllable-catalog/internal/conf"
	"github.com/tphakala/syllable-catalog/internal/container/containertest"
	"github.com/tphakala/syllable-catalog/internal/datastore"
)

// setupIndexer returns an indexer over a fresh SQLite catalog that reads
// fixture containers instead of HDF5.
func setupIndexer(t *testing.T, opts ...Option) (*Indexer, *datastore.Engine) {
	t.Helper()

	engine, err := datastore.NewEngine("sqlite://" + filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	opts = append([]Option{WithReader(containertest.Reader{}), WithChecksumWorkers(2)}, opts...)
	return New(conf.Default(), engine, opts...), engine
}

// writeContainers creates n fixture containers with segments each under dir
// and returns their paths.
func writeContainers(t *testing.T, dir string, n, segments int) []string {
	t.Helper()

	paths := make([]string, n)
	for i := range n {
		paths[i] = filepath.Join(dir, fmt.Sprintf("bird%d", i), fmt.Sprintf("syllables_%04d.h5", i))
		require.NoError(t, containertest.Write(paths[i], containertest.Segments(segments, 0.1)))
	}
	return paths
}

func countRows(t *testing.T, engine *datastore.Engine) (recordings, syllables int64) {
	t.Helper()
	ctx := context.Background()
	err := engine.WithSession(ctx, func(s *datastore.Session) error {
		var err error
		if recordings, err = s.Recordings().Count(ctx); err != nil {
			return err
		}
		syllables, err = s.Syllables().Count(ctx)
		return err
	})
	require.NoError(t, err)
	return recordings, syllables
}

func TestNew_Defaults(t *testing.T) {
	settings := conf.Default()
	settings.Ingest.Workers = 3
	settings.Ingest.LockDir = "/var/lock/catalog"

	ix := New(settings, nil)
	assert.Equal(t, 3, ix.workers)
	assert.Equal(t, "/var/lock/catalog", ix.lockDir)
	assert.NotNil(t, ix.reader)
	assert.NotNil(t, ix.log)

	ix = New(settings, nil, WithChecksumWorkers(0), WithLockDir("/tmp/x"))
	assert.Equal(t, 3, ix.workers, "non-positive worker override is ignored")
	assert.Equal(t, "/tmp/x", ix.lockDir)
}
