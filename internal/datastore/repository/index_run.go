package repository

import (
	"context"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// IndexRunRepository persists the audit trail of indexing runs.
type IndexRunRepository interface {
	// Create records a new run in the discovering state.
	Create(ctx context.Context, runID, baseDir string) (*entities.IndexRun, error)
	// Update moves a run to a non-terminal state and stores its counters.
	Update(ctx context.Context, runID string, update IndexRunUpdate) error
	// Finish moves a run to completed or failed and stamps completed_at.
	Finish(ctx context.Context, runID string, update IndexRunUpdate) error
	GetByRunID(ctx context.Context, runID string) (*entities.IndexRun, error)
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]entities.IndexRun, error)
}
