package repository

import (
	"context"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// EmbeddingRepository handles embedding reference operations.
type EmbeddingRepository interface {
	Create(ctx context.Context, spec EmbeddingSpec) (*entities.Embedding, error)
	// FilterByModelTag returns embeddings for a model version ordered by syllable_id then id.
	FilterByModelTag(ctx context.Context, modelVersion string) ([]entities.Embedding, error)
	// GetBySyllable returns a syllable's embeddings ordered by model_version then id.
	GetBySyllable(ctx context.Context, syllableID uint) ([]entities.Embedding, error)
	Count(ctx context.Context) (int64, error)
}
