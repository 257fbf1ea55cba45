package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

const tableRecordings = "recordings"

// recordingRepository implements RecordingRepository.
type recordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new RecordingRepository bound to db.
func NewRecordingRepository(db *gorm.DB) RecordingRepository {
	return &recordingRepository{db: db}
}

func (r *recordingRepository) Create(ctx context.Context, filePath, checksum string, metadata map[string]any) (*entities.Recording, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, invalidInput("create recording", "file path must not be empty")
	}
	if checksum == "" {
		return nil, invalidInput("create recording", "checksum must not be empty for %s", filePath)
	}

	rec := &entities.Recording{
		FilePath: filePath,
		Checksum: checksum,
		Metadata: datatypes.JSONMap(metadata),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, translateError(err, "insert", tableRecordings)
	}
	return rec, nil
}

func (r *recordingRepository) GetByID(ctx context.Context, id uint) (*entities.Recording, error) {
	var rec entities.Recording
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrRecordingNotFound, tableRecordings)
	}
	if err != nil {
		return nil, translateError(err, "select", tableRecordings)
	}
	return &rec, nil
}

func (r *recordingRepository) GetByPath(ctx context.Context, filePath string) (*entities.Recording, error) {
	var rec entities.Recording
	err := r.db.WithContext(ctx).
		Where("file_path = ?", filePath).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrRecordingNotFound, tableRecordings)
	}
	if err != nil {
		return nil, translateError(err, "select", tableRecordings)
	}
	return &rec, nil
}

func (r *recordingRepository) FilterByCreatedRange(ctx context.Context, start, end time.Time) ([]entities.Recording, error) {
	if end.Before(start) {
		return nil, invalidInput("filter recordings", "end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	var recs []entities.Recording
	// Stored timestamps are UTC, bounds must be too for SQLite's text comparison.
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start.UTC(), end.UTC()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, translateError(err, "select", tableRecordings)
	}
	return recs, nil
}

func (r *recordingRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Recording{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete", tableRecordings)
	}
	if result.RowsAffected == 0 {
		return notFound(ErrRecordingNotFound, tableRecordings)
	}
	return nil
}

func (r *recordingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Recording{}).Count(&n).Error; err != nil {
		return 0, translateError(err, "count", tableRecordings)
	}
	return n, nil
}
