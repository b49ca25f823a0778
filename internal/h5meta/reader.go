package h5meta

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxField bounds a single read so a corrupt length cannot force a huge
// allocation.
const maxField = 1 << 28

// reader reads little-endian HDF5 fields using the file's offset and length
// widths. Copies share the underlying io.ReaderAt but keep their own
// position.
type reader struct {
	r          io.ReaderAt
	base       int64
	offsetSize int
	lengthSize int
	pos        int64
}

// at returns a reader positioned at a file address, which is relative to
// the superblock's base address.
func (r *reader) at(addr uint64) *reader {
	c := *r
	c.pos = r.base + int64(addr)
	return &c
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > maxField {
		return nil, fmt.Errorf("%w: %d byte field at %d", ErrCorrupt, n, r.pos)
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

func (r *reader) uintN(n int) (uint64, error) {
	buf, err := r.bytes(n)
	if err != nil {
		return 0, err
	}
	return decodeUint(buf), nil
}

func (r *reader) uint8() (uint8, error) {
	v, err := r.uintN(1)
	return uint8(v), err
}

func (r *reader) uint16() (uint16, error) {
	v, err := r.uintN(2)
	return uint16(v), err
}

func (r *reader) uint32() (uint32, error) {
	v, err := r.uintN(4)
	return uint32(v), err
}

// offset reads a file address.
func (r *reader) offset() (uint64, error) { return r.uintN(r.offsetSize) }

// length reads a size or count field.
func (r *reader) length() (uint64, error) { return r.uintN(r.lengthSize) }

func (r *reader) skip(n int) { r.pos += int64(n) }

// signature reads four bytes and checks them against sig.
func (r *reader) signature(sig string) error {
	pos := r.pos
	b, err := r.bytes(len(sig))
	if err != nil {
		return err
	}
	if string(b) != sig {
		return fmt.Errorf("%w: expected %q at %d, got %q", ErrCorrupt, sig, pos, b)
	}
	return nil
}

// undefined reports whether addr is the all-ones "no address" value.
func (r *reader) undefined(addr uint64) bool {
	return addr == allOnes(r.offsetSize)
}

func allOnes(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*uint(size)) - 1
}

// decodeUint decodes a little-endian unsigned integer of any width up to
// eight bytes.
func decodeUint(buf []byte) uint64 {
	switch len(buf) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	case 8:
		return binary.LittleEndian.Uint64(buf)
	}
	var v uint64
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// cursor decodes fields from a message body held in memory. The first
// overrun is kept in err and later reads return zero values.
type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > len(c.b)-c.off {
		c.err = fmt.Errorf("%w: message truncated at byte %d", ErrCorrupt, c.off)
		return nil
	}
	b := c.b[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) uint(n int) uint64 { return decodeUint(c.next(n)) }

func (c *cursor) uint8() uint8 { return uint8(c.uint(1)) }
