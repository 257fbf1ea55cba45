package indexer

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/tphakala/syllable-catalog/internal/errors"
)

const lockFileName = ".ingest.lock"

// ErrIndexingInProgress is returned when another process holds the ingest lock.
var ErrIndexingInProgress = errors.NewStd("another indexing run holds the ingest lock")

// runLock keeps a single indexing writer per lock directory across processes.
type runLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newRunLock(path string) *runLock {
	return &runLock{
		path:  path,
		flock: flock.New(path),
	}
}

// lockPath returns the lock file for this indexer. An explicit lock directory
// holds .ingest.lock; otherwise the lock lives in the user cache directory,
// named after the catalog database so separate catalogs do not contend.
func (ix *Indexer) lockPath() string {
	if ix.lockDir != "" {
		return filepath.Join(ix.lockDir, lockFileName)
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	sum := sha256.Sum256([]byte(string(ix.engine.Dialect()) + "|" + ix.engine.Location()))
	return filepath.Join(dir, "syllable-catalog", fmt.Sprintf("ingest-%x.lock", sum[:8]))
}

// acquire takes the lock without blocking. A held lock is a state error.
func (l *runLock) acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create lock directory: %w", err)).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Build()
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return errors.New(fmt.Errorf("failed to acquire ingest lock %s: %w", l.path, err)).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Build()
	}
	if !acquired {
		return errors.New(fmt.Errorf("%w: %s", ErrIndexingInProgress, l.path)).
			Component(componentName).
			Category(errors.CategoryState).
			Build()
	}

	l.locked = true
	return nil
}

// release is safe to call when the lock is not held.
func (l *runLock) release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release ingest lock: %w", err)
	}
	return nil
}
