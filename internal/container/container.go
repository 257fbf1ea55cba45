// Package container reads structural metadata from spectrogram containers.
//
// A container is an HDF5 file holding a batch of syllable spectrograms and
// their temporal bounds in four root datasets:
//
//	specs            N x H x W spectrogram stack
//	onsets           N syllable start times, seconds
//	offsets          N syllable end times, seconds
//	audio_filenames  N source audio file names
package container

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/syllable-catalog/internal/errors"
)

// Required root dataset names.
const (
	DatasetSpecs          = "specs"
	DatasetOnsets         = "onsets"
	DatasetOffsets        = "offsets"
	DatasetAudioFilenames = "audio_filenames"
)

// RequiredDatasets lists every dataset a container must provide.
var RequiredDatasets = []string{DatasetSpecs, DatasetOnsets, DatasetOffsets, DatasetAudioFilenames}

// Accepted container file extensions, compared case-insensitively.
var Extensions = []string{".h5", ".hdf5"}

var (
	// ErrMissingDatasets is wrapped when required datasets are absent.
	ErrMissingDatasets = errors.NewStd("missing required datasets")

	// ErrLengthMismatch is wrapped when per-syllable datasets disagree on length.
	ErrLengthMismatch = errors.NewStd("dataset length mismatch")

	// ErrInvalidBounds is wrapped when a syllable ends before it starts.
	ErrInvalidBounds = errors.NewStd("invalid syllable bounds")
)

// Metadata is the structural summary of one container.
type Metadata struct {
	Path           string
	SpecsShape     []int
	SpecsDType     string
	Onsets         []float64
	Offsets        []float64
	AudioFilenames int // number of entries in audio_filenames
	ExtractedAt    time.Time
}

// SpecsNDim returns the rank of the spectrogram stack.
func (m *Metadata) SpecsNDim() int {
	return len(m.SpecsShape)
}

// NumSyllables returns the number of segments in the container.
func (m *Metadata) NumSyllables() int {
	return len(m.Onsets)
}

// Validate checks that the per-syllable datasets line up and every segment
// has finite, ordered bounds.
func (m *Metadata) Validate() error {
	n := len(m.Onsets)
	if len(m.Offsets) != n || m.AudioFilenames != n {
		return fmt.Errorf("%w: onsets=%d offsets=%d audio_filenames=%d",
			ErrLengthMismatch, n, len(m.Offsets), m.AudioFilenames)
	}
	if len(m.SpecsShape) > 0 && m.SpecsShape[0] != n {
		return fmt.Errorf("%w: specs has %d entries, onsets has %d", ErrLengthMismatch, m.SpecsShape[0], n)
	}
	for i := range n {
		on, off := m.Onsets[i], m.Offsets[i]
		if math.IsNaN(on) || math.IsNaN(off) || math.IsInf(on, 0) || math.IsInf(off, 0) {
			return fmt.Errorf("%w: segment %d has non-finite bounds", ErrInvalidBounds, i)
		}
		if off < on {
			return fmt.Errorf("%w: segment %d ends at %g before it starts at %g", ErrInvalidBounds, i, off, on)
		}
	}
	return nil
}

// Summary returns the recording-level metadata stored with a catalogued container.
func (m *Metadata) Summary() map[string]any {
	return map[string]any{
		"file_type":     "hdf5_spectrogram",
		"num_syllables": m.NumSyllables(),
		"specs_shape":   m.SpecsShape,
		"specs_dtype":   m.SpecsDType,
		"extracted_at":  m.ExtractedAt.UTC().Format(time.RFC3339),
	}
}

// Reader extracts Metadata from a container file.
type Reader interface {
	Read(path string) (*Metadata, error)
}

// HasExtension reports whether path carries an accepted container extension.
func HasExtension(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// missingDatasets returns the required datasets not present in names, in
// RequiredDatasets order.
func missingDatasets(names []string) []string {
	var missing []string
	for _, req := range RequiredDatasets {
		if !slices.Contains(names, req) {
			missing = append(missing, req)
		}
	}
	return missing
}

// CheckDatasets fails with ErrMissingDatasets naming every absent dataset.
func CheckDatasets(names []string) error {
	if missing := missingDatasets(names); len(missing) > 0 {
		return fmt.Errorf("%w %v", ErrMissingDatasets, missing)
	}
	return nil
}
