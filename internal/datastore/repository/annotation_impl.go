package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

const tableAnnotations = "annotations"

// annotationRepository implements AnnotationRepository.
type annotationRepository struct {
	db *gorm.DB
}

// NewAnnotationRepository creates a new AnnotationRepository bound to db.
func NewAnnotationRepository(db *gorm.DB) AnnotationRepository {
	return &annotationRepository{db: db}
}

func (r *annotationRepository) BulkCreate(ctx context.Context, specs []AnnotationSpec) ([]entities.Annotation, error) {
	if len(specs) == 0 {
		return []entities.Annotation{}, nil
	}

	rows := make([]entities.Annotation, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		if strings.TrimSpace(spec.AnnotationType) == "" || strings.TrimSpace(spec.Key) == "" {
			return nil, invalidInput("bulk create annotations", "annotation %d needs both a type and a key", i)
		}
		rows = append(rows, entities.Annotation{
			SyllableID:     spec.SyllableID,
			AnnotationType: spec.AnnotationType,
			Key:            spec.Key,
			Value:          spec.Value,
		})
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, translateError(err, "bulk insert", tableAnnotations)
	}
	return rows, nil
}

func (r *annotationRepository) FilterByTypeAndKey(ctx context.Context, annotationType, key string) ([]entities.Annotation, error) {
	var anns []entities.Annotation
	err := r.db.WithContext(ctx).
		Where("annotation_type = ? AND annotation_key = ?", annotationType, key).
		Order("created_at ASC").
		Order("id ASC").
		Find(&anns).Error
	if err != nil {
		return nil, translateError(err, "select", tableAnnotations)
	}
	return anns, nil
}

func (r *annotationRepository) GetBySyllable(ctx context.Context, syllableID uint) ([]entities.Annotation, error) {
	var anns []entities.Annotation
	err := r.db.WithContext(ctx).
		Where("syllable_id = ?", syllableID).
		Order("annotation_type ASC").
		Order("annotation_key ASC").
		Order("id ASC").
		Find(&anns).Error
	if err != nil {
		return nil, translateError(err, "select", tableAnnotations)
	}
	return anns, nil
}

func (r *annotationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Annotation{}).Count(&n).Error; err != nil {
		return 0, translateError(err, "count", tableAnnotations)
	}
	return n, nil
}
