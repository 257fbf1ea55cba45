package container

import (
	"fmt"
	"time"

	"gonum.org/v1/hdf5"

	"github.com/tphakala/syllable-catalog/internal/errors"
)

// HDF5Reader reads containers through the HDF5 C library.
type HDF5Reader struct {
	now func() time.Time
}

// NewHDF5Reader returns a Reader backed by libhdf5.
func NewHDF5Reader() *HDF5Reader {
	return &HDF5Reader{now: time.Now}
}

// Read opens path read-only and extracts its Metadata. Every failure is an
// extraction error naming path.
func (r *HDF5Reader) Read(path string) (*Metadata, error) {
	md, err := r.read(path)
	if err != nil {
		return nil, errors.ExtractionError(err, path)
	}
	return md, nil
}

func (r *HDF5Reader) read(path string) (md *Metadata, err error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	names, err := rootNames(f)
	if err != nil {
		return nil, err
	}
	if err := CheckDatasets(names); err != nil {
		return nil, err
	}

	md = &Metadata{Path: path, ExtractedAt: r.now().UTC()}

	if md.SpecsShape, md.SpecsDType, err = describe(f, DatasetSpecs); err != nil {
		return nil, err
	}
	if md.Onsets, err = readFloats(f, DatasetOnsets); err != nil {
		return nil, err
	}
	if md.Offsets, err = readFloats(f, DatasetOffsets); err != nil {
		return nil, err
	}
	if md.AudioFilenames, err = countPoints(f, DatasetAudioFilenames); err != nil {
		return nil, err
	}

	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}

func rootNames(f *hdf5.File) ([]string, error) {
	n, err := f.NumObjects()
	if err != nil {
		return nil, fmt.Errorf("list root objects: %w", err)
	}
	names := make([]string, 0, n)
	for i := range n {
		name, err := f.ObjectNameByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("read root object %d: %w", i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// describe returns a dataset's shape and element type without reading its data.
func describe(f *hdf5.File, name string) (shape []int, dtype string, err error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, "", fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, "", fmt.Errorf("dataset %s dimensions: %w", name, err)
	}
	shape = make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}

	dt, err := ds.Datatype()
	if err != nil {
		return nil, "", fmt.Errorf("dataset %s type: %w", name, err)
	}
	defer dt.Close()

	return shape, dtypeName(dt.Class(), dt.Size()), nil
}

func readFloats(f *hdf5.File, name string) ([]float64, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	if rank := space.SimpleExtentNDims(); rank != 1 {
		return nil, fmt.Errorf("dataset %s must be one-dimensional, has rank %d", name, rank)
	}

	values := make([]float64, space.SimpleExtentNPoints())
	if len(values) == 0 {
		return values, nil
	}
	// libhdf5 converts the stored numeric type to float64.
	if err := ds.Read(&values); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", name, err)
	}
	return values, nil
}

func countPoints(f *hdf5.File, name string) (int, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return 0, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	return space.SimpleExtentNPoints(), nil
}

// dtypeName renders an HDF5 type class and byte size the way NumPy names dtypes.
func dtypeName(class hdf5.TypeClass, size uint) string {
	bits := size * 8
	switch class {
	case hdf5.T_FLOAT:
		return fmt.Sprintf("float%d", bits)
	case hdf5.T_INTEGER:
		return fmt.Sprintf("int%d", bits)
	case hdf5.T_STRING:
		return "string"
	case hdf5.T_COMPOUND:
		return "compound"
	default:
		return fmt.Sprintf("class%d_%d", int(class), bits)
	}
}
