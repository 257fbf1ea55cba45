package repository

import (
	"context"
	"fmt"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

const (
	tableSyllables = "syllables"

	// syllableBatchSize keeps each INSERT well under SQLite's bound-parameter limit.
	syllableBatchSize = 1000
)

// syllableRepository implements SyllableRepository.
type syllableRepository struct {
	db *gorm.DB
}

// NewSyllableRepository creates a new SyllableRepository bound to db.
func NewSyllableRepository(db *gorm.DB) SyllableRepository {
	return &syllableRepository{db: db}
}

func (r *syllableRepository) BulkCreate(ctx context.Context, specs []SyllableSpec) ([]entities.Syllable, error) {
	if len(specs) == 0 {
		return []entities.Syllable{}, nil
	}

	rows := make([]entities.Syllable, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		if err := validateBounds(spec.StartTime, spec.EndTime); err != nil {
			return nil, invalidInput("bulk create syllables", "syllable %d (%s): %v", i, spec.SpectrogramPath, err)
		}
		rows = append(rows, entities.Syllable{
			RecordingID:     spec.RecordingID,
			SpectrogramPath: spec.SpectrogramPath,
			StartTime:       spec.StartTime,
			EndTime:         spec.EndTime,
			BoundsMetadata:  datatypes.JSONMap(spec.BoundsMetadata),
		})
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, syllableBatchSize).Error; err != nil {
		return nil, translateError(err, "bulk insert", tableSyllables)
	}
	return rows, nil
}

func validateBounds(start, end float64) error {
	switch {
	case math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0):
		return fmt.Errorf("bounds must be finite, got [%g, %g]", start, end)
	case start < 0:
		return fmt.Errorf("start time %g is negative", start)
	case end < start:
		return fmt.Errorf("end time %g is before start time %g", end, start)
	}
	return nil
}

func (r *syllableRepository) GetByID(ctx context.Context, id uint) (*entities.Syllable, error) {
	var syl entities.Syllable
	err := r.db.WithContext(ctx).First(&syl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrSyllableNotFound, tableSyllables)
	}
	if err != nil {
		return nil, translateError(err, "select", tableSyllables)
	}
	return &syl, nil
}

func (r *syllableRepository) GetByRecording(ctx context.Context, recordingID uint) ([]entities.Syllable, error) {
	var syls []entities.Syllable
	err := r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("start_time ASC").
		Order("id ASC").
		Find(&syls).Error
	if err != nil {
		return nil, translateError(err, "select", tableSyllables)
	}
	return syls, nil
}

func (r *syllableRepository) FilterByDuration(ctx context.Context, minDuration float64, maxDuration *float64) ([]entities.Syllable, error) {
	if minDuration < 0 {
		return nil, invalidInput("filter syllables", "minimum duration %g is negative", minDuration)
	}
	if maxDuration != nil && *maxDuration < minDuration {
		return nil, invalidInput("filter syllables", "maximum duration %g is below minimum %g", *maxDuration, minDuration)
	}

	q := r.db.WithContext(ctx).Where("(end_time - start_time) >= ?", minDuration)
	if maxDuration != nil {
		q = q.Where("(end_time - start_time) <= ?", *maxDuration)
	}

	var syls []entities.Syllable
	err := q.Order("start_time ASC").Order("id ASC").Find(&syls).Error
	if err != nil {
		return nil, translateError(err, "select", tableSyllables)
	}
	return syls, nil
}

func (r *syllableRepository) CountByRecording(ctx context.Context, recordingID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Syllable{}).
		Where("recording_id = ?", recordingID).
		Count(&n).Error
	if err != nil {
		return 0, translateError(err, "count", tableSyllables)
	}
	return n, nil
}

func (r *syllableRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Syllable{}).Count(&n).Error; err != nil {
		return 0, translateError(err, "count", tableSyllables)
	}
	return n, nil
}
