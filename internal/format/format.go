package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnknown is returned when a file carries none of the known signatures.
var ErrUnknown = errors.New("unknown file format")

// Kind identifies a container format.
type Kind int

const (
	Unknown Kind = iota
	HDF5
	// Classic is netCDF CDF-1, and Offset64 is CDF-2; both are readable by
	// classic netCDF libraries.
	Classic
	Offset64
	// Data64 is CDF-5, which classic readers of CDF-1/2 do not support.
	Data64
)

func (k Kind) String() string {
	switch k {
	case HDF5:
		return "HDF5"
	case Classic:
		return "netCDF classic"
	case Offset64:
		return "netCDF 64-bit offset"
	case Data64:
		return "netCDF 64-bit data"
	default:
		return "unknown"
	}
}

// Signature is the 8-byte HDF5 superblock signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// hdf5Offsets are where an HDF5 superblock may start when a user block is
// present.
var hdf5Offsets = []int64{0, 512, 1024, 2048}

var cdfMagic = []byte{'C', 'D', 'F'}

// Detect reports the format of r and, for HDF5, the offset of the
// superblock.
func Detect(r io.ReaderAt) (Kind, int64, error) {
	buf := make([]byte, len(Signature))

	n, err := r.ReadAt(buf[:4], 0)
	if err != nil && err != io.EOF {
		return Unknown, 0, err
	}
	if n == 4 && bytes.Equal(buf[:3], cdfMagic) {
		switch buf[3] {
		case 1:
			return Classic, 0, nil
		case 2:
			return Offset64, 0, nil
		case 5:
			return Data64, 0, nil
		}
		return Unknown, 0, fmt.Errorf("%w: netCDF version byte %d", ErrUnknown, buf[3])
	}

	for _, offset := range hdf5Offsets {
		if _, err := r.ReadAt(buf, offset); err != nil {
			if err == io.EOF {
				break
			}
			return Unknown, 0, err
		}
		if bytes.Equal(buf, Signature) {
			return HDF5, offset, nil
		}
	}
	return Unknown, 0, ErrUnknown
}

// DetectFile opens path and reports its format.
func DetectFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()
	k, _, err := Detect(f)
	return k, err
}
