package indexer

import (
	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// ExtractMetadata reads the structural metadata of one container. Any
// failure is an extraction error naming path.
func (ix *Indexer) ExtractMetadata(path string) (*container.Metadata, error) {
	md, err := ix.reader.Read(path)
	if err != nil {
		if errors.IsExtraction(err) {
			return nil, err
		}
		return nil, errors.ExtractionError(err, path)
	}

	ix.log.Debug("extracted container metadata",
		logger.String("path", path),
		logger.Int("syllables", md.NumSyllables()),
		logger.Any("specs_shape", md.SpecsShape),
		logger.String("specs_dtype", md.SpecsDType))
	return md, nil
}
