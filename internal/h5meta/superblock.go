package h5meta

import (
	"bytes"
	"fmt"
	"io"
)

// Signature opens every HDF5 superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Possible superblock locations, searched in order.
var superblockOffsets = []int64{0, 512, 1024, 2048}

/*
Version 0/1 superblock, after the signature:
0       1     Version
1       1     Free-space storage version
2       1     Root group symbol table entry version
3       1     Reserved
4       1     Shared header message format version
5       1     Size of offsets
6       1     Size of lengths
7       1     Reserved
8       2     Group leaf node K
10      2     Group internal node K
12      4     File consistency flags
16      4     Indexed storage K and reserved (version 1 only)
then    4×O   Base, free-space, EOF and driver info addresses
then    O     Root symbol table entry: link name offset
then    O     Root symbol table entry: object header address

Version 2/3 superblock, after the signature:
0       1     Version
1       1     Size of offsets
2       1     Size of lengths
3       1     File consistency flags
4       4×O   Base, superblock extension, EOF and root object header addresses
*/

type superblock struct {
	version    uint8
	offsetSize int
	lengthSize int
	base       uint64
	root       uint64
}

// readSuperblock locates the superblock and returns a reader configured
// with the file's field widths.
func readSuperblock(r io.ReaderAt) (*superblock, error) {
	head := make([]byte, 24)
	for _, off := range superblockOffsets {
		n, err := r.ReadAt(head, off)
		if n < len(head) {
			if err != nil && err != io.EOF {
				return nil, err
			}
			continue
		}
		if !bytes.Equal(head[:8], Signature) {
			continue
		}

		sb := &superblock{version: head[8]}
		var addrs int64
		switch sb.version {
		case 0, 1:
			sb.offsetSize, sb.lengthSize = int(head[13]), int(head[14])
			addrs = off + 24
			if sb.version == 1 {
				addrs += 4
			}
		case 2, 3:
			sb.offsetSize, sb.lengthSize = int(head[9]), int(head[10])
			addrs = off + 12
		default:
			return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupported, sb.version)
		}
		if !validSize(sb.offsetSize) || !validSize(sb.lengthSize) {
			return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrCorrupt, sb.offsetSize, sb.lengthSize)
		}

		ar := &reader{r: r, offsetSize: sb.offsetSize, lengthSize: sb.lengthSize, pos: addrs}
		if sb.base, err = ar.offset(); err != nil {
			return nil, err
		}
		if sb.version < 2 {
			// free-space, EOF, driver info, root link name offset
			ar.skip(4 * sb.offsetSize)
		} else {
			// superblock extension, EOF
			ar.skip(2 * sb.offsetSize)
		}
		if sb.root, err = ar.offset(); err != nil {
			return nil, err
		}
		return sb, nil
	}
	return nil, ErrNotHDF5
}

func validSize(n int) bool {
	return n == 2 || n == 4 || n == 8
}
