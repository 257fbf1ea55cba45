package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/datastore/repository"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

// validTransitions lists the forward moves of a run. Any non-terminal state
// may also move to failed.
var validTransitions = map[entities.IndexRunStatus]entities.IndexRunStatus{
	entities.IndexRunDiscovering:  entities.IndexRunValidating,
	entities.IndexRunValidating:   entities.IndexRunChecksumming,
	entities.IndexRunChecksumming: entities.IndexRunPopulating,
	entities.IndexRunPopulating:   entities.IndexRunCompleted,
}

// runTracker drives one run through its states and mirrors each transition
// to the index_runs table. Every write uses its own session.
type runTracker struct {
	ix         *Indexer
	summary    *Summary
	stageStart time.Time
	log        logger.Logger
}

func (ix *Indexer) startRun(ctx context.Context, runID, baseDir string) (*runTracker, error) {
	now := time.Now()
	t := &runTracker{
		ix: ix,
		summary: &Summary{
			RunID:     runID,
			Status:    entities.IndexRunDiscovering,
			BaseDir:   baseDir,
			StartedAt: now.UTC(),
			Errors:    []string{},
		},
		stageStart: now,
		log:        ix.log.With(logger.String("run_id", runID)),
	}

	err := ix.engine.WithSession(ctx, func(s *datastore.Session) error {
		_, err := s.IndexRuns().Create(ctx, runID, baseDir)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("indexing run started", logger.String("base_dir", baseDir))
	return t, nil
}

// advance moves the run to next, which must be the permitted successor.
func (t *runTracker) advance(ctx context.Context, next entities.IndexRunStatus) error {
	current := t.summary.Status
	allowed := validTransitions[current] == next ||
		(current == entities.IndexRunDiscovering && next == entities.IndexRunCompleted)
	if !allowed {
		return errors.Newf("invalid run transition %s -> %s", current, next).
			Component(componentName).
			Category(errors.CategoryState).
			Build()
	}

	t.ix.observeStage(string(current), t.stageStart)
	t.stageStart = time.Now()
	t.summary.Status = next

	if next == entities.IndexRunCompleted {
		if err := t.persistFinish(ctx); err != nil {
			t.summary.Status = current
			return err
		}
		return nil
	}

	t.log.Debug("run state changed",
		logger.String("from", string(current)),
		logger.String("to", string(next)))
	return t.ix.engine.WithSession(ctx, func(s *datastore.Session) error {
		return s.IndexRuns().Update(ctx, t.summary.RunID, t.update())
	})
}

// fail moves the run to failed and records cause. A failure to persist the
// failed state is logged, since cause is the error the caller must see.
func (t *runTracker) fail(ctx context.Context, cause error) {
	if isTerminal(t.summary.Status) {
		return
	}
	t.ix.observeStage(string(t.summary.Status), t.stageStart)
	t.log.Error("indexing run failed",
		logger.String("stage", string(t.summary.Status)),
		logger.Error(cause))

	t.summary.Status = entities.IndexRunFailed
	t.summary.Errors = append(t.summary.Errors, cause.Error())

	if err := t.persistFinish(context.WithoutCancel(ctx)); err != nil {
		t.log.Warn("failed to record run failure", logger.Error(err))
	}
}

func (t *runTracker) persistFinish(ctx context.Context) error {
	t.summary.Duration = time.Since(t.summary.StartedAt)

	if t.ix.metrics != nil {
		status := metrics.StatusCompleted
		if t.summary.Status == entities.IndexRunFailed {
			status = metrics.StatusFailed
		}
		t.ix.metrics.RecordRun(status)
	}

	err := t.ix.engine.WithSession(ctx, func(s *datastore.Session) error {
		return s.IndexRuns().Finish(ctx, t.summary.RunID, t.update())
	})
	if err != nil {
		return fmt.Errorf("failed to record run %s as %s: %w", t.summary.RunID, t.summary.Status, err)
	}
	return nil
}

func (t *runTracker) update() repository.IndexRunUpdate {
	u := repository.IndexRunUpdate{
		State:           t.summary.Status,
		DiscoveredFiles: t.summary.DiscoveredFiles,
		IndexedFiles:    t.summary.IndexedFiles,
		SkippedFiles:    t.summary.SkippedFiles,
		TotalSyllables:  t.summary.TotalSyllables,
	}
	if len(t.summary.Errors) > 0 {
		u.ErrorMessage = t.summary.Errors[len(t.summary.Errors)-1]
	}
	return u
}

func isTerminal(status entities.IndexRunStatus) bool {
	return status == entities.IndexRunCompleted || status == entities.IndexRunFailed
}
