package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
)

// setupTestDB opens a file-backed SQLite database with the catalog schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gorm_logger.Default.LogMode(gorm_logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// seedRecording inserts a recording with syllables at the given bounds.
func seedRecording(t *testing.T, db *gorm.DB, path string, bounds ...[2]float64) (*entities.Recording, []entities.Syllable) {
	t.Helper()
	ctx := context.Background()

	rec, err := NewRecordingRepository(db).Create(ctx, path, fmt.Sprintf("%064x", len(path)), nil)
	require.NoError(t, err)

	specs := make([]SyllableSpec, 0, len(bounds))
	for i, b := range bounds {
		specs = append(specs, SyllableSpec{
			RecordingID:     rec.ID,
			SpectrogramPath: fmt.Sprintf("%s#%d", path, i),
			StartTime:       b[0],
			EndTime:         b[1],
		})
	}
	syls, err := NewSyllableRepository(db).BulkCreate(ctx, specs)
	require.NoError(t, err)
	return rec, syls
}

func ptr[T any](v T) *T {
	return &v
}
