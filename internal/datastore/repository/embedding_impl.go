package repository

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

const tableEmbeddings = "embeddings"

// embeddingRepository implements EmbeddingRepository.
type embeddingRepository struct {
	db *gorm.DB
}

// NewEmbeddingRepository creates a new EmbeddingRepository bound to db.
func NewEmbeddingRepository(db *gorm.DB) EmbeddingRepository {
	return &embeddingRepository{db: db}
}

func (r *embeddingRepository) Create(ctx context.Context, spec EmbeddingSpec) (*entities.Embedding, error) {
	if spec.Dimensions <= 0 {
		return nil, invalidInput("create embedding", "dimensions must be positive, got %d", spec.Dimensions)
	}
	if strings.TrimSpace(spec.ModelVersion) == "" {
		return nil, invalidInput("create embedding", "model version must not be empty")
	}

	emb := &entities.Embedding{
		SyllableID:    spec.SyllableID,
		ModelVersion:  spec.ModelVersion,
		EmbeddingPath: spec.EmbeddingPath,
		Dimensions:    spec.Dimensions,
		ModelMetadata: datatypes.JSONMap(spec.ModelMetadata),
	}
	if err := r.db.WithContext(ctx).Create(emb).Error; err != nil {
		return nil, translateError(err, "insert", tableEmbeddings)
	}
	return emb, nil
}

func (r *embeddingRepository) FilterByModelTag(ctx context.Context, modelVersion string) ([]entities.Embedding, error) {
	var embs []entities.Embedding
	err := r.db.WithContext(ctx).
		Where("model_version = ?", modelVersion).
		Order("syllable_id ASC").
		Order("id ASC").
		Find(&embs).Error
	if err != nil {
		return nil, translateError(err, "select", tableEmbeddings)
	}
	return embs, nil
}

func (r *embeddingRepository) GetBySyllable(ctx context.Context, syllableID uint) ([]entities.Embedding, error) {
	var embs []entities.Embedding
	err := r.db.WithContext(ctx).
		Where("syllable_id = ?", syllableID).
		Order("model_version ASC").
		Order("id ASC").
		Find(&embs).Error
	if err != nil {
		return nil, translateError(err, "select", tableEmbeddings)
	}
	return embs, nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Embedding{}).Count(&n).Error; err != nil {
		return 0, translateError(err, "count", tableEmbeddings)
	}
	return n, nil
}
