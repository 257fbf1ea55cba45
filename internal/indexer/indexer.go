// Package indexer discovers spectrogram containers on disk and catalogs them.
//
// A full run moves through discovering, validating, checksumming and
// populating before it completes; an error in any stage fails the run. The
// populate stage writes every recording and syllable of the batch in a single
// session, so a failed run leaves no partial catalog entries behind. Each run
// is also recorded in the index_runs table from its own sessions, which keeps
// failed runs visible after their populate transaction rolled back.
package indexer

import (
	"io"
	"time"

	"github.com/tphakala/syllable-catalog/internal/conf"
	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

const (
	moduleName    = "indexer"
	componentName = "indexer"

	// checksumBlockSize bounds memory per file regardless of file size.
	checksumBlockSize = 8 * 1024
)

// Indexer turns a directory of containers into catalog entries.
type Indexer struct {
	settings *conf.Settings
	engine   *datastore.Engine
	reader   container.Reader
	log      logger.Logger
	metrics  *metrics.IndexerMetrics
	workers  int
	lockDir  string
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the parent logger; the indexer logs under the "indexer" module.
func WithLogger(l logger.Logger) Option {
	return func(ix *Indexer) {
		ix.log = l.Module(moduleName)
	}
}

// WithReader replaces the HDF5 container reader.
func WithReader(r container.Reader) Option {
	return func(ix *Indexer) {
		ix.reader = r
	}
}

// WithMetrics records stage durations, file outcomes and run results.
func WithMetrics(m *metrics.IndexerMetrics) Option {
	return func(ix *Indexer) {
		ix.metrics = m
	}
}

// WithChecksumWorkers overrides ingest.workers. Values below 1 are ignored.
func WithChecksumWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithLockDir sets where the single-writer lock file lives. By default it
// is kept in the user cache directory.
func WithLockDir(dir string) Option {
	return func(ix *Indexer) {
		ix.lockDir = dir
	}
}

// New creates an Indexer that writes to engine.
func New(settings *conf.Settings, engine *datastore.Engine, opts ...Option) *Indexer {
	ix := &Indexer{
		settings: settings,
		engine:   engine,
		reader:   container.NewHDF5Reader(),
		workers:  settings.Ingest.ChecksumWorkers(),
		lockDir:  settings.Ingest.LockDir,
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.log == nil {
		ix.log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC).Module(moduleName)
	}
	return ix
}

func (ix *Indexer) observeStage(stage string, start time.Time) {
	if ix.metrics != nil {
		ix.metrics.RecordStageDuration(stage, time.Since(start).Seconds())
	}
}
