package h5meta

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file: signature not found")
	ErrCorrupt     = errors.New("corrupt HDF5 structure")
	ErrUnsupported = errors.New("unsupported HDF5 feature")
)

// Unlimited is the maximum dimension of an axis with no upper bound.
const Unlimited = ^uint64(0)

// Space is the extent of one dataset. Scalar and null dataspaces have no
// dimensions.
type Space struct {
	Dims []uint64
	// MaxDims is nil when the file stores no maximum, which means the
	// dataset cannot grow.
	MaxDims []uint64
}

// Growable reports whether axis i has no upper bound.
func (s Space) Growable(i int) bool {
	return i >= 0 && i < len(s.MaxDims) && s.MaxDims[i] == Unlimited
}

// Spaces maps the absolute path of each dataset, such as "/tas" or
// "/forecast/tas", to its dataspace. An object reachable by several paths
// is listed under the first one found.
type Spaces map[string]Space

// Read walks every group reachable from the root group of the file in r.
func Read(r io.ReaderAt) (Spaces, error) {
	sb, err := readSuperblock(r)
	if err != nil {
		return nil, err
	}
	w := &walker{
		r: &reader{
			r:          r,
			base:       int64(sb.base),
			offsetSize: sb.offsetSize,
			lengthSize: sb.lengthSize,
		},
		spaces: make(Spaces),
		seen:   make(map[uint64]bool),
	}
	if err := w.walk(sb.root, "/"); err != nil {
		return nil, err
	}
	return w.spaces, nil
}

// ReadFile reads the dataspaces of the HDF5 file at name.
func ReadFile(name string) (Spaces, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	spaces, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return spaces, nil
}
