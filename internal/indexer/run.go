package indexer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// Summary reports the outcome of RunFullIndexing.
type Summary struct {
	RunID             string                  `json:"run_id" yaml:"run_id"`
	Status            entities.IndexRunStatus `json:"status" yaml:"status"`
	BaseDir           string                  `json:"base_dir" yaml:"base_dir"`
	DiscoveredFiles   int                     `json:"discovered_files" yaml:"discovered_files"`
	IndexedFiles      int                     `json:"indexed_files" yaml:"indexed_files"`
	SkippedFiles      int                     `json:"skipped_files" yaml:"skipped_files"`
	TotalSyllables    int                     `json:"total_syllables" yaml:"total_syllables"`
	ChecksumsComputed int                     `json:"checksums_computed" yaml:"checksums_computed"`
	Errors            []string                `json:"errors" yaml:"errors"`
	StartedAt         time.Time               `json:"started_at" yaml:"started_at"`
	Duration          time.Duration           `json:"duration" yaml:"duration"`
}

// RunFullIndexing scans baseDir, validates and checksums what it finds and
// catalogs it in one transaction. Only one run per catalog database may
// hold the ingest lock at a time; baseDir itself is never written to.
//
// On failure the returned Summary is still populated, with status failed and
// the cause in Errors, alongside the error itself. Failures that happen before
// the run is recorded, such as a missing baseDir or a held lock, return a nil
// Summary.
func (ix *Indexer) RunFullIndexing(ctx context.Context, baseDir string) (*Summary, error) {
	root, err := resolveBaseDir(baseDir)
	if err != nil {
		return nil, err
	}

	lock := newRunLock(ix.lockPath())
	if err := lock.acquire(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			ix.log.Warn("failed to release ingest lock", logger.Error(err))
		}
	}()

	run, err := ix.startRun(ctx, uuid.NewString(), root)
	if err != nil {
		return nil, err
	}

	if err := ix.runStages(ctx, run, root); err != nil {
		run.fail(ctx, err)
		return run.summary, err
	}

	run.log.Info("indexing run completed",
		logger.Int("indexed_files", run.summary.IndexedFiles),
		logger.Int("skipped_files", run.summary.SkippedFiles),
		logger.Int("total_syllables", run.summary.TotalSyllables),
		logger.Duration("duration", run.summary.Duration))
	return run.summary, nil
}

func (ix *Indexer) runStages(ctx context.Context, run *runTracker, root string) error {
	s := run.summary

	paths, err := ix.ScanFiles(root)
	if err != nil {
		return err
	}
	s.DiscoveredFiles = len(paths)

	if len(paths) == 0 {
		run.log.Warn("no containers discovered for indexing")
		return run.advance(ctx, entities.IndexRunCompleted)
	}

	if err := run.advance(ctx, entities.IndexRunValidating); err != nil {
		return err
	}
	if err := ix.ValidateIntegrity(paths); err != nil {
		return err
	}

	if err := run.advance(ctx, entities.IndexRunChecksumming); err != nil {
		return err
	}
	checksums, err := ix.ComputeChecksums(ctx, paths)
	if err != nil {
		return err
	}
	s.ChecksumsComputed = len(checksums)

	if err := run.advance(ctx, entities.IndexRunPopulating); err != nil {
		return err
	}
	result, err := ix.PopulateDatabase(ctx, paths, checksums)
	if err != nil {
		return err
	}
	s.IndexedFiles = result.IndexedFiles
	s.SkippedFiles = result.SkippedFiles
	s.TotalSyllables = result.TotalSyllables

	return run.advance(ctx, entities.IndexRunCompleted)
}
