package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// ScanFiles returns every container under baseDir matching ingest.scan_glob_h5,
// as absolute paths in lexical order. Matches without an accepted container
// extension are dropped. A missing baseDir is a not-found error; an existing
// directory with no matches yields an empty list.
func (ix *Indexer) ScanFiles(baseDir string) ([]string, error) {
	root, err := resolveBaseDir(baseDir)
	if err != nil {
		return nil, err
	}

	pattern := ix.settings.Ingest.ScanGlobH5
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Newf("invalid scan pattern %q", pattern).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to scan %s: %w", root, err)).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("pattern", pattern).
			Build()
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if !container.HasExtension(m) {
			continue
		}
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	slices.Sort(paths)

	ix.log.Info("discovered containers",
		logger.Int("count", len(paths)),
		logger.String("base_dir", root),
		logger.String("pattern", pattern))
	return paths, nil
}

// resolveBaseDir returns baseDir as a clean absolute path after checking it is
// an existing directory.
func resolveBaseDir(baseDir string) (string, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.New(fmt.Errorf("invalid base directory %q: %w", baseDir, err)).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", errors.NotFoundError(fmt.Errorf("base directory does not exist: %s", root), componentName)
	case err != nil:
		return "", errors.New(fmt.Errorf("cannot access base directory %s: %w", root, err)).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Build()
	case !info.IsDir():
		return "", errors.Newf("base directory is not a directory: %s", root).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
	return root, nil
}
