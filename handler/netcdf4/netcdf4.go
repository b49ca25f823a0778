package netcdf4

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/internal/format"
	"github.com/robert-malhotra/go-dap/internal/ncapi"
)

// Open opens the netCDF file at path and builds its dataset.
func Open(path string, opts ...handler.Option) (*handler.Handler, error) {
	return handler.New(path, OpenFile, opts...)
}

// OpenFile opens path as a handler.File, choosing a reader from the file
// signature. It implements handler.OpenFunc.
func OpenFile(path string, log logrus.FieldLogger) (handler.File, error) {
	kind, err := format.DetectFile(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"path": path, "format": kind.String()}).Debug("detected format")

	switch kind {
	case format.Classic, format.Offset64:
		return openClassic(path)
	case format.Data64:
		g, err := netcdf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s file: %w", kind, err)
		}
		return ncapi.Wrap(g, log), nil
	case format.HDF5:
		g, err := netcdf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s file: %w", kind, err)
		}
		return ncapi.Wrap(g, log, ncapi.ReadSpaces(path, log)), nil
	}
	return nil, fmt.Errorf("%w: %s", format.ErrUnknown, kind)
}
