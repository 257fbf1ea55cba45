package repository

import (
	"context"
	"time"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// RecordingRepository handles recording CRUD operations.
type RecordingRepository interface {
	// Create inserts a recording. A path that already exists fails with ErrDuplicateKey.
	Create(ctx context.Context, filePath, checksum string, metadata map[string]any) (*entities.Recording, error)
	GetByID(ctx context.Context, id uint) (*entities.Recording, error)
	// GetByPath matches the stored path exactly.
	GetByPath(ctx context.Context, filePath string) (*entities.Recording, error)
	// FilterByCreatedRange returns recordings created within [start, end],
	// ordered by created_at then id.
	FilterByCreatedRange(ctx context.Context, start, end time.Time) ([]entities.Recording, error)
	// Delete removes a recording and, through ON DELETE CASCADE, its syllables,
	// embeddings and annotations.
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}
