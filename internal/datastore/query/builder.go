// Package query provides a fluent, conjunctive filter builder over syllables.
//
// Filters are recorded as descriptors and compiled to SQL only when Execute
// runs, so a Builder can be extended and executed any number of times. Each
// related table is joined at most once regardless of how many filters touch
// it, and results are distinct syllables ordered by start_time then id.
package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

// ErrInvalidFilter is wrapped by every filter argument error returned from Execute.
var ErrInvalidFilter = errors.NewStd("invalid query filter")

// joinTable identifies a table joined onto syllables.
type joinTable string

const (
	joinAnnotations joinTable = "annotations"
	joinEmbeddings  joinTable = "embeddings"
	joinRecordings  joinTable = "recordings"
)

// joinClauses holds the ON condition for each joinable table.
var joinClauses = map[joinTable]string{
	joinAnnotations: "JOIN annotations ON annotations.syllable_id = syllables.id",
	joinEmbeddings:  "JOIN embeddings ON embeddings.syllable_id = syllables.id",
	joinRecordings:  "JOIN recordings ON recordings.id = syllables.recording_id",
}

// predicate is one recorded filter.
type predicate struct {
	name   string // filter name, for logs and errors
	clause string
	args   []any
	join   joinTable // empty when the predicate only touches syllables
}

// Builder accumulates syllable filters.
type Builder struct {
	db         *gorm.DB
	metrics    *metrics.DatastoreMetrics
	predicates []predicate
	joins      []joinTable
	joined     map[joinTable]struct{}
	errs       []error
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetrics records result sizes and execution latency.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// New returns an empty builder over db, typically a session's transaction.
func New(db *gorm.DB, opts ...Option) *Builder {
	b := &Builder{
		db:     db,
		joined: make(map[joinTable]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FilterByDuration keeps syllables whose end_time - start_time lies in
// [minDuration, maxDuration]. A nil maxDuration means at least minDuration.
func (b *Builder) FilterByDuration(minDuration float64, maxDuration *float64) *Builder {
	switch {
	case math.IsNaN(minDuration) || minDuration < 0:
		b.reject("duration", "minimum %g must be a non-negative number", minDuration)
		return b
	case maxDuration != nil && (math.IsNaN(*maxDuration) || *maxDuration < minDuration):
		b.reject("duration", "maximum %g is below minimum %g", *maxDuration, minDuration)
		return b
	}

	b.add(predicate{
		name:   "duration_min",
		clause: "(syllables.end_time - syllables.start_time) >= ?",
		args:   []any{minDuration},
	})
	if maxDuration != nil {
		b.add(predicate{
			name:   "duration_max",
			clause: "(syllables.end_time - syllables.start_time) <= ?",
			args:   []any{*maxDuration},
		})
	}
	return b
}

// FilterByLabel keeps syllables carrying an annotation of the given type and value.
func (b *Builder) FilterByLabel(annotationType, value string) *Builder {
	if annotationType == "" {
		b.reject("label", "annotation type must not be empty")
		return b
	}
	b.add(predicate{
		name:   "label",
		clause: "annotations.annotation_type = ? AND annotations.annotation_value = ?",
		args:   []any{annotationType, value},
		join:   joinAnnotations,
	})
	return b
}

// FilterByModelTag keeps syllables with an embedding from the given model version.
func (b *Builder) FilterByModelTag(modelVersion string) *Builder {
	if modelVersion == "" {
		b.reject("model_tag", "model version must not be empty")
		return b
	}
	b.add(predicate{
		name:   "model_tag",
		clause: "embeddings.model_version = ?",
		args:   []any{modelVersion},
		join:   joinEmbeddings,
	})
	return b
}

// FilterByDateRange keeps syllables whose recording was cataloged within [start, end].
func (b *Builder) FilterByDateRange(start, end time.Time) *Builder {
	if end.Before(start) {
		b.reject("date_range", "end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
		return b
	}
	b.add(predicate{
		name:   "date_range",
		clause: "recordings.created_at >= ? AND recordings.created_at <= ?",
		args:   []any{start.UTC(), end.UTC()},
		join:   joinRecordings,
	})
	return b
}

func (b *Builder) add(p predicate) {
	b.predicates = append(b.predicates, p)
	if p.join == "" {
		return
	}
	if _, ok := b.joined[p.join]; !ok {
		b.joined[p.join] = struct{}{}
		b.joins = append(b.joins, p.join)
	}
}

func (b *Builder) reject(filter, format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf("%w: %s: %s", ErrInvalidFilter, filter, fmt.Sprintf(format, args...)))
}

// Filters returns the names of the recorded predicates in order.
func (b *Builder) Filters() []string {
	names := make([]string, len(b.predicates))
	for i := range b.predicates {
		names[i] = b.predicates[i].name
	}
	return names
}

// Execute compiles the recorded filters and returns matching syllables.
// With no filters every syllable is returned.
func (b *Builder) Execute(ctx context.Context) ([]entities.Syllable, error) {
	if len(b.errs) > 0 {
		return nil, errors.New(errors.Join(b.errs...)).
			Component("datastore.query").
			Category(errors.CategoryValidation).
			Context("filters", len(b.predicates)).
			Build()
	}

	start := time.Now()

	// The filtered id set is computed in a subquery so the outer select never
	// applies DISTINCT to JSON columns.
	ids := b.db.WithContext(ctx).
		Model(&entities.Syllable{}).
		Distinct("syllables.id")
	for _, jt := range b.joins {
		ids = ids.Joins(joinClauses[jt])
	}
	for i := range b.predicates {
		ids = ids.Where(b.predicates[i].clause, b.predicates[i].args...)
	}

	var syllables []entities.Syllable
	err := b.db.WithContext(ctx).
		Where("syllables.id IN (?)", ids).
		Order("syllables.start_time ASC").
		Order("syllables.id ASC").
		Find(&syllables).Error

	b.record(len(syllables), time.Since(start), err)

	if err != nil {
		return nil, errors.New(fmt.Errorf("query execution failed: %w", err)).
			Component("datastore.query").
			Category(errors.CategoryDatabase).
			Context("filters", b.Filters()).
			Build()
	}
	return syllables, nil
}

func (b *Builder) record(n int, elapsed time.Duration, err error) {
	if b.metrics == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		b.metrics.RecordDbOperationError(metrics.OpQueryExec, "syllables", "query_failed")
	}
	b.metrics.RecordDbOperation(metrics.OpQueryExec, "syllables", status)
	b.metrics.RecordDbOperationDuration(metrics.OpQueryExec, "syllables", elapsed.Seconds())
	b.metrics.RecordQueryResultSize(metrics.OpQueryExec, "syllables", n)
}
