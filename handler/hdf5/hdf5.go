package hdf5

import (
	"errors"
	"fmt"

	nchdf5 "github.com/batchatco/go-native-netcdf/netcdf/hdf5"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/internal/format"
	"github.com/robert-malhotra/go-dap/internal/ncapi"
)

// ErrNotHDF5 is returned when a file does not carry an HDF5 superblock.
var ErrNotHDF5 = errors.New("not an HDF5 file")

// Open opens the HDF5 file at path and builds its dataset. Groups become
// structures and datasets become grids or arrays.
func Open(path string, opts ...handler.Option) (*handler.Handler, error) {
	return handler.New(path, OpenFile, opts...)
}

// OpenFile opens path as a handler.File. It implements handler.OpenFunc.
func OpenFile(path string, log logrus.FieldLogger) (handler.File, error) {
	kind, err := format.DetectFile(path)
	if err != nil {
		return nil, err
	}
	if kind != format.HDF5 {
		return nil, fmt.Errorf("%w: found %s", ErrNotHDF5, kind)
	}

	g, err := nchdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading HDF5 structure: %w", err)
	}
	return ncapi.Wrap(g, log, ncapi.ReadSpaces(path, log)), nil
}
