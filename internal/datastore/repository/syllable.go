package repository

import (
	"context"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// SyllableRepository handles syllable operations.
type SyllableRepository interface {
	// BulkCreate inserts all specs in one flush and returns the rows with IDs assigned.
	BulkCreate(ctx context.Context, specs []SyllableSpec) ([]entities.Syllable, error)
	GetByID(ctx context.Context, id uint) (*entities.Syllable, error)
	// GetByRecording returns a recording's syllables ordered by start_time then id.
	GetByRecording(ctx context.Context, recordingID uint) ([]entities.Syllable, error)
	// FilterByDuration matches end_time - start_time in [min, max]. A nil max
	// means at least min.
	FilterByDuration(ctx context.Context, minDuration float64, maxDuration *float64) ([]entities.Syllable, error)
	CountByRecording(ctx context.Context, recordingID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}
