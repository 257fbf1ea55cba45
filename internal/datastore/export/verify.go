package export

import (
	"context"
	"fmt"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

const defaultSampleSize = 5

// CountCheck compares one table's row count between source and target.
type CountCheck struct {
	Table  string `json:"table" yaml:"table"`
	Source int64  `json:"source" yaml:"source"`
	Target int64  `json:"target" yaml:"target"`
}

// Match reports whether both sides hold the same number of rows.
func (c CountCheck) Match() bool {
	return c.Source == c.Target
}

// Verify compares row counts for every table, then checks a sample of
// recordings and syllables field by field. The returned checks are filled
// even when verification fails.
func (c *Copier) Verify(ctx context.Context) ([]CountCheck, error) {
	checks := make([]CountCheck, 0, len(tables))
	mismatched := 0

	for _, t := range tables {
		check := CountCheck{Table: t.name}
		if err := c.source.WithContext(ctx).Model(t.model).Count(&check.Source).Error; err != nil {
			return checks, fmt.Errorf("failed to count source %s: %w", t.name, err)
		}
		if err := c.target.WithContext(ctx).Model(t.model).Count(&check.Target).Error; err != nil {
			return checks, fmt.Errorf("failed to count target %s: %w", t.name, err)
		}
		if !check.Match() {
			mismatched++
		}
		checks = append(checks, check)
	}

	if mismatched > 0 {
		return checks, verificationError(fmt.Errorf("record counts do not match for %d tables", mismatched))
	}

	if err := sampleRows(ctx, c, defaultSampleSize, recordingID, compareRecordings); err != nil {
		return checks, verificationError(fmt.Errorf("recordings sampling failed: %w", err))
	}
	if err := sampleRows(ctx, c, defaultSampleSize, syllableID, compareSyllables); err != nil {
		return checks, verificationError(fmt.Errorf("syllables sampling failed: %w", err))
	}

	c.log.Info("catalog copy verified", logger.Int("tables", len(checks)))
	return checks, nil
}

// sampleRows fetches the first and last rows of a table from the source and
// compares each with the target row of the same ID.
func sampleRows[T any](ctx context.Context, c *Copier, count int, id func(*T) uint, compare func(src, dst *T) error) error {
	var head, tail []T
	if err := c.source.WithContext(ctx).Order("id ASC").Limit(count).Find(&head).Error; err != nil {
		return fmt.Errorf("failed to fetch source samples: %w", err)
	}
	if err := c.source.WithContext(ctx).Order("id DESC").Limit(count).Find(&tail).Error; err != nil {
		return fmt.Errorf("failed to fetch source samples: %w", err)
	}

	for _, rows := range [][]T{head, tail} {
		for i := range rows {
			src := &rows[i]
			var dst T
			if err := c.target.WithContext(ctx).First(&dst, id(src)).Error; err != nil {
				return fmt.Errorf("row ID %d not found in target: %w", id(src), err)
			}
			if err := compare(src, &dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordingID(r *entities.Recording) uint { return r.ID }
func syllableID(s *entities.Syllable) uint   { return s.ID }

func compareRecordings(src, dst *entities.Recording) error {
	if src.FilePath != dst.FilePath {
		return fmt.Errorf("recording ID %d: file path mismatch (%s vs %s)", src.ID, src.FilePath, dst.FilePath)
	}
	if src.Checksum != dst.Checksum {
		return fmt.Errorf("recording ID %d: checksum mismatch (%s vs %s)", src.ID, src.Checksum, dst.Checksum)
	}
	return nil
}

func compareSyllables(src, dst *entities.Syllable) error {
	if src.RecordingID != dst.RecordingID {
		return fmt.Errorf("syllable ID %d: recording ID mismatch (%d vs %d)", src.ID, src.RecordingID, dst.RecordingID)
	}
	if src.StartTime != dst.StartTime || src.EndTime != dst.EndTime {
		return fmt.Errorf("syllable ID %d: bounds mismatch ([%f, %f] vs [%f, %f])",
			src.ID, src.StartTime, src.EndTime, dst.StartTime, dst.EndTime)
	}
	return nil
}

func verificationError(err error) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryIntegrity).
		Build()
}
