// Package export copies a catalog from one database engine to another,
// typically from an embedded SQLite file to a shared MySQL server.
//
// Rows keep their original IDs and are copied parent before child, so
// foreign keys stay enforced throughout. Rows whose ID already exists in the
// target are skipped, which makes an interrupted copy safe to re-run.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

const (
	componentName    = "export"
	DefaultBatchSize = 1000
	MaxBatchSize     = 10000
)

// Options tunes a copy.
type Options struct {
	BatchSize int  // rows per read and insert batch
	Clean     bool // delete every target row before copying
}

// TableStats tracks per-table copy statistics.
type TableStats struct {
	Name     string        `json:"name" yaml:"name"`
	Copied   int64         `json:"copied" yaml:"copied"`
	Skipped  int64         `json:"skipped" yaml:"skipped"`
	Errors   int64         `json:"errors" yaml:"errors"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Stats tracks a whole copy.
type Stats struct {
	StartTime time.Time    `json:"start_time" yaml:"start_time"`
	EndTime   time.Time    `json:"end_time" yaml:"end_time"`
	Tables    []TableStats `json:"tables" yaml:"tables"`
}

// Totals sums the per-table counters.
func (s *Stats) Totals() (copied, skipped, failed int64) {
	for i := range s.Tables {
		copied += s.Tables[i].Copied
		skipped += s.Tables[i].Skipped
		failed += s.Tables[i].Errors
	}
	return copied, skipped, failed
}

// Copier copies catalog rows from source to target.
type Copier struct {
	source *gorm.DB
	target *gorm.DB
	opts   Options
	log    logger.Logger
}

// New creates a Copier. The target engine has already created its schema.
func New(source, target *datastore.Engine, opts Options, l logger.Logger) (*Copier, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize < 1 || opts.BatchSize > MaxBatchSize {
		return nil, errors.ValidationError(fmt.Sprintf("batch size must be between 1 and %d, got %d", MaxBatchSize, opts.BatchSize))
	}
	if l == nil {
		l = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	return &Copier{
		source: source.DB(),
		target: target.DB(),
		opts:   opts,
		log:    l.Module(componentName),
	}, nil
}

type tableCopy struct {
	name  string
	model any
	copy  func(ctx context.Context, c *Copier) (*TableStats, error)
}

// tables lists every catalog table in dependency order.
var tables = []tableCopy{
	{"recordings", &entities.Recording{}, copyTable(func(r *entities.Recording) uint { return r.ID })},
	{"syllables", &entities.Syllable{}, copyTable(func(s *entities.Syllable) uint { return s.ID })},
	{"embeddings", &entities.Embedding{}, copyTable(func(e *entities.Embedding) uint { return e.ID })},
	{"annotations", &entities.Annotation{}, copyTable(func(a *entities.Annotation) uint { return a.ID })},
	{"index_runs", &entities.IndexRun{}, copyTable(func(r *entities.IndexRun) uint { return r.ID })},
}

// Run copies every table. A batch that fails to insert is counted in
// TableStats.Errors and the copy moves on to the remaining tables, but Run
// then returns an integrity error alongside the stats.
func (c *Copier) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	if c.opts.Clean {
		if err := c.cleanTables(ctx); err != nil {
			return nil, err
		}
	}

	for _, t := range tables {
		tableStats, err := t.copy(ctx, c)
		if err != nil {
			return stats, errors.New(fmt.Errorf("failed to copy %s: %w", t.name, err)).
				Component(componentName).
				Category(errors.CategoryDatabase).
				Context("table", t.name).
				Build()
		}
		tableStats.Name = t.name
		stats.Tables = append(stats.Tables, *tableStats)
	}

	stats.EndTime = time.Now()
	copied, skipped, failed := stats.Totals()
	c.log.Info("catalog copy finished",
		logger.Any("copied", copied),
		logger.Any("skipped", skipped),
		logger.Any("errors", failed),
		logger.Duration("duration", stats.EndTime.Sub(stats.StartTime)))

	if failed > 0 {
		return stats, errors.New(fmt.Errorf("%d rows could not be copied", failed)).
			Component(componentName).
			Category(errors.CategoryIntegrity).
			Context("failed_tables", failedTables(stats)).
			Build()
	}
	return stats, nil
}

func failedTables(stats *Stats) []string {
	var names []string
	for i := range stats.Tables {
		if stats.Tables[i].Errors > 0 {
			names = append(names, stats.Tables[i].Name)
		}
	}
	return names
}

// cleanTables deletes all target rows, children first.
func (c *Copier) cleanTables(ctx context.Context) error {
	db := c.target.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(tables) - 1; i >= 0; i-- {
		name := tables[i].name
		if err := db.Delete(tables[i].model).Error; err != nil {
			return errors.New(fmt.Errorf("failed to clean table %s: %w", name, err)).
				Component(componentName).
				Category(errors.CategoryDatabase).
				Build()
		}
		c.log.Debug("target table cleaned", logger.String("table", name))
	}
	return nil
}

// copyTable returns a copier for one table that reads in primary key order
// and inserts in batches. Rows whose ID already exists in the target count as
// skipped; rows that are still absent after the insert, whether the batch
// failed or another unique key rejected them, count as errors.
func copyTable[T any](id func(*T) uint) func(ctx context.Context, c *Copier) (*TableStats, error) {
	return func(ctx context.Context, c *Copier) (*TableStats, error) {
		start := time.Now()
		stats := &TableStats{}

		var sourceCount int64
		if err := c.source.WithContext(ctx).Model(new(T)).Count(&sourceCount).Error; err != nil {
			return stats, fmt.Errorf("failed to count source records: %w", err)
		}
		if sourceCount == 0 {
			stats.Duration = time.Since(start)
			return stats, nil
		}

		var processed int64
		err := c.source.WithContext(ctx).Model(new(T)).FindInBatches(new([]T), c.opts.BatchSize, func(tx *gorm.DB, batch int) error {
			records := tx.Statement.Dest.(*[]T)
			ids := make([]uint, len(*records))
			for i := range *records {
				ids[i] = id(&(*records)[i])
			}

			existing, err := c.countTarget(ctx, new(T), ids)
			if err != nil {
				return err
			}

			insertErr := c.target.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(records).Error
			if insertErr != nil {
				c.log.Warn("batch insert failed",
					logger.Int("batch", batch),
					logger.Error(insertErr))
			}

			present, err := c.countTarget(ctx, new(T), ids)
			if err != nil {
				return err
			}

			stats.Skipped += existing
			stats.Copied += present - existing
			if missing := int64(len(ids)) - present; missing > 0 {
				stats.Errors += missing
				if insertErr == nil {
					c.log.Warn("rows rejected by target constraints",
						logger.Int("batch", batch),
						logger.Any("rows", missing))
				}
			}
			processed += int64(len(ids))

			c.log.Debug("batch copied",
				logger.Int("batch", batch),
				logger.Any("processed", processed),
				logger.Any("total", sourceCount))
			return nil
		}).Error
		if err != nil {
			return stats, err
		}

		stats.Duration = time.Since(start)
		return stats, nil
	}
}

// countTarget counts target rows of model whose primary key is in ids.
func (c *Copier) countTarget(ctx context.Context, model any, ids []uint) (int64, error) {
	var n int64
	if err := c.target.WithContext(ctx).Model(model).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count target records: %w", err)
	}
	return n, nil
}
