package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

// PathProblem is one integrity violation.
type PathProblem struct {
	Path   string
	Reason string
}

// IntegrityReport lists every path that failed integrity validation.
type IntegrityReport struct {
	Checked  int
	Problems []PathProblem
}

// Error lists every offending path, one per line.
func (r *IntegrityReport) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity validation failed for %d of %d files:", len(r.Problems), r.Checked)
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "\n  - %s: %s", p.Path, p.Reason)
	}
	return b.String()
}

// ErrorCategory marks integrity reports as validation failures.
func (r *IntegrityReport) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// ValidateIntegrity checks that every path exists, is a regular file and has
// an accepted container extension. All violations are collected and returned
// together as one validation error wrapping an *IntegrityReport.
func (ix *Indexer) ValidateIntegrity(paths []string) error {
	report := &IntegrityReport{Checked: len(paths)}

	for _, path := range paths {
		if reason := checkPath(path); reason != "" {
			report.Problems = append(report.Problems, PathProblem{Path: path, Reason: reason})
		}
	}

	if len(report.Problems) > 0 {
		ix.log.Warn("integrity validation failed",
			logger.Int("invalid", len(report.Problems)),
			logger.Int("checked", report.Checked))
		return errors.New(report).
			Component(componentName).
			Category(errors.CategoryValidation).
			Context("invalid_files", len(report.Problems)).
			Build()
	}

	ix.log.Info("integrity validation passed", logger.Int("files", len(paths)))
	return nil
}

func checkPath(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "file does not exist"
	case err != nil:
		return fmt.Sprintf("cannot stat file: %v", err)
	case !info.Mode().IsRegular():
		return "not a regular file"
	case !container.HasExtension(path):
		return fmt.Sprintf("invalid file extension %q", filepath.Ext(path))
	}
	return ""
}
