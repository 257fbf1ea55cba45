package indexer

import (
	"context"
	"fmt"

	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/repository"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

// PopulateResult counts what one populate batch wrote.
type PopulateResult struct {
	IndexedFiles   int // new recordings created
	SkippedFiles   int // already catalogued with an identical checksum
	TotalSyllables int
}

// PopulateDatabase catalogs paths in one session. Each path gets a recording,
// created if missing, and one syllable per onset/offset pair; all syllables
// are inserted in a single bulk write at the end. A path that is already
// catalogued with the same checksum is skipped, and one whose checksum has
// changed fails the batch. Any failure rolls back the whole batch.
//
// Once the session has begun it runs to commit or rollback even if ctx is
// cancelled.
func (ix *Indexer) PopulateDatabase(ctx context.Context, paths []string, checksums map[string]string) (*PopulateResult, error) {
	result := &PopulateResult{}

	err := ix.engine.WithSession(context.WithoutCancel(ctx), func(s *datastore.Session) error {
		*result = PopulateResult{}
		recordings := s.Recordings()
		var batch []repository.SyllableSpec

		for _, path := range paths {
			specs, skipped, err := ix.prepareFile(ctx, recordings, path, checksums)
			if err != nil {
				return err
			}
			if skipped {
				result.SkippedFiles++
				continue
			}
			result.IndexedFiles++
			batch = append(batch, specs...)
		}

		created, err := s.Syllables().BulkCreate(ctx, batch)
		if err != nil {
			return err
		}
		result.TotalSyllables = len(created)
		return nil
	})
	if err != nil {
		ix.log.Error("database population failed, batch rolled back",
			logger.Int("files", len(paths)),
			logger.Error(err))
		return nil, err
	}

	if ix.metrics != nil {
		ix.metrics.RecordFiles(metrics.OutcomeIndexed, result.IndexedFiles)
		ix.metrics.RecordFiles(metrics.OutcomeSkipped, result.SkippedFiles)
		ix.metrics.RecordSyllables(result.TotalSyllables)
	}
	ix.log.Info("database populated",
		logger.Int("indexed_files", result.IndexedFiles),
		logger.Int("skipped_files", result.SkippedFiles),
		logger.Int("syllables", result.TotalSyllables))
	return result, nil
}

// prepareFile resolves the recording for path and builds its syllable specs.
// Extraction always runs so a corrupt container fails the batch even when
// its recording is already catalogued.
func (ix *Indexer) prepareFile(ctx context.Context, recordings repository.RecordingRepository, path string, checksums map[string]string) ([]repository.SyllableSpec, bool, error) {
	md, err := ix.ExtractMetadata(path)
	if err != nil {
		return nil, false, err
	}

	checksum, ok := checksums[path]
	if !ok {
		return nil, false, errors.Newf("no checksum computed for %s", path).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	existing, err := recordings.GetByPath(ctx, path)
	switch {
	case err == nil:
		if existing.Checksum != checksum {
			return nil, false, errors.IntegrityError(
				fmt.Errorf("%s changed since it was catalogued: stored checksum %s, computed %s",
					path, existing.Checksum, checksum),
				componentName)
		}
		ix.log.Info("container already catalogued, skipping",
			logger.String("path", path),
			logger.Uint64("recording_id", uint64(existing.ID)))
		return nil, true, nil
	case !errors.Is(err, repository.ErrRecordingNotFound):
		return nil, false, err
	}

	rec, err := recordings.Create(ctx, path, checksum, md.Summary())
	if err != nil {
		return nil, false, err
	}

	specs := make([]repository.SyllableSpec, md.NumSyllables())
	for i := range specs {
		specs[i] = repository.SyllableSpec{
			RecordingID:     rec.ID,
			SpectrogramPath: path,
			StartTime:       md.Onsets[i],
			EndTime:         md.Offsets[i],
			BoundsMetadata: map[string]any{
				"batch_index": i,
				"specs_shape": md.SpecsShape,
			},
		}
	}

	ix.log.Info("prepared syllables",
		logger.String("path", path),
		logger.Int("syllables", len(specs)))
	return specs, false, nil
}
