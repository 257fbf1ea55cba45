package repository

import (
	"context"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// AnnotationRepository handles syllable annotations.
type AnnotationRepository interface {
	BulkCreate(ctx context.Context, specs []AnnotationSpec) ([]entities.Annotation, error)
	// FilterByTypeAndKey returns matching annotations ordered by created_at then id.
	FilterByTypeAndKey(ctx context.Context, annotationType, key string) ([]entities.Annotation, error)
	// GetBySyllable returns a syllable's annotations ordered by type, key, then id.
	GetBySyllable(ctx context.Context, syllableID uint) ([]entities.Annotation, error)
	Count(ctx context.Context) (int64, error)
}
