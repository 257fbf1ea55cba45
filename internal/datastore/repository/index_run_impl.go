package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

const (
	tableIndexRuns = "index_runs"

	defaultIndexRunLimit = 10
)

// indexRunRepository implements IndexRunRepository.
type indexRunRepository struct {
	db *gorm.DB
}

// NewIndexRunRepository creates a new IndexRunRepository bound to db.
func NewIndexRunRepository(db *gorm.DB) IndexRunRepository {
	return &indexRunRepository{db: db}
}

func (r *indexRunRepository) Create(ctx context.Context, runID, baseDir string) (*entities.IndexRun, error) {
	if runID == "" {
		return nil, invalidInput("create index run", "run id must not be empty")
	}
	run := &entities.IndexRun{
		RunID:     runID,
		State:     entities.IndexRunDiscovering,
		BaseDir:   baseDir,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, translateError(err, "insert", tableIndexRuns)
	}
	return run, nil
}

func (r *indexRunRepository) Update(ctx context.Context, runID string, update IndexRunUpdate) error {
	if isTerminalState(update.State) {
		return invalidInput("update index run", "state %q is terminal, use Finish", update.State)
	}
	return r.apply(ctx, runID, update, nil)
}

func (r *indexRunRepository) Finish(ctx context.Context, runID string, update IndexRunUpdate) error {
	if !isTerminalState(update.State) {
		return invalidInput("finish index run", "state %q is not terminal", update.State)
	}
	now := time.Now().UTC()
	return r.apply(ctx, runID, update, &now)
}

// apply writes every counter, zero values included.
func (r *indexRunRepository) apply(ctx context.Context, runID string, update IndexRunUpdate, completedAt *time.Time) error {
	fields := map[string]any{
		"state":            update.State,
		"discovered_files": update.DiscoveredFiles,
		"indexed_files":    update.IndexedFiles,
		"skipped_files":    update.SkippedFiles,
		"total_syllables":  update.TotalSyllables,
		"error_message":    update.ErrorMessage,
	}
	if completedAt != nil {
		fields["completed_at"] = *completedAt
	}

	result := r.db.WithContext(ctx).Model(&entities.IndexRun{}).
		Where("run_id = ?", runID).
		Updates(fields)
	if result.Error != nil {
		return translateError(result.Error, "update", tableIndexRuns)
	}
	if result.RowsAffected == 0 {
		return notFound(ErrIndexRunNotFound, tableIndexRuns)
	}
	return nil
}

func (r *indexRunRepository) GetByRunID(ctx context.Context, runID string) (*entities.IndexRun, error) {
	var run entities.IndexRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrIndexRunNotFound, tableIndexRuns)
	}
	if err != nil {
		return nil, translateError(err, "select", tableIndexRuns)
	}
	return &run, nil
}

func (r *indexRunRepository) ListRecent(ctx context.Context, limit int) ([]entities.IndexRun, error) {
	if limit <= 0 {
		limit = defaultIndexRunLimit
	}
	var runs []entities.IndexRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, translateError(err, "select", tableIndexRuns)
	}
	return runs, nil
}

func isTerminalState(state entities.IndexRunStatus) bool {
	return state == entities.IndexRunCompleted || state == entities.IndexRunFailed
}
