// Package containertest provides a file-backed container Reader for tests
// that must not depend on libhdf5.
//
// Fixture containers are JSON documents written under the usual container
// extensions, so filesystem discovery, checksumming and validation behave
// exactly as they do for real files.
package containertest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tphakala/syllable-catalog/internal/container"
	"github.com/tphakala/syllable-catalog/internal/errors"
)

// Fixture is the on-disk form of a fake container. A nil field models a
// missing dataset.
type Fixture struct {
	Specs          []int     `json:"specs,omitempty"` // shape only
	SpecsDType     string    `json:"specs_dtype,omitempty"`
	Onsets         []float64 `json:"onsets,omitempty"`
	Offsets        []float64 `json:"offsets,omitempty"`
	AudioFilenames []string  `json:"audio_filenames,omitempty"`
}

// Segments returns a well-formed fixture with n back-to-back segments of
// the given length, starting at zero.
func Segments(n int, length float64) Fixture {
	fx := Fixture{
		Specs:          []int{n, 128, 128},
		SpecsDType:     "float32",
		Onsets:         make([]float64, n),
		Offsets:        make([]float64, n),
		AudioFilenames: make([]string, n),
	}
	for i := range n {
		fx.Onsets[i] = float64(i) * length
		fx.Offsets[i] = float64(i+1) * length
		fx.AudioFilenames[i] = fmt.Sprintf("audio_%04d.wav", i)
	}
	return fx
}

// Write stores fx at path, creating parent directories.
func Write(path string, fx Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(fx)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Reader implements container.Reader over Fixture files.
type Reader struct{}

// Read decodes a fixture container. Failures are extraction errors naming path.
func (Reader) Read(path string) (*container.Metadata, error) {
	md, err := read(path)
	if err != nil {
		return nil, errors.ExtractionError(err, path)
	}
	return md, nil
}

func read(path string) (*container.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("not a container: %w", err)
	}
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	if err := container.CheckDatasets(names); err != nil {
		return nil, err
	}

	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, err
	}

	md := &container.Metadata{
		Path:           path,
		SpecsShape:     fx.Specs,
		SpecsDType:     fx.SpecsDType,
		Onsets:         fx.Onsets,
		Offsets:        fx.Offsets,
		AudioFilenames: len(fx.AudioFilenames),
		ExtractedAt:    time.Now().UTC(),
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}
