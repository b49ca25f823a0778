package h5meta

import (
	"encoding/binary"
	"fmt"
)

// Header message types read by the walker.
const (
	msgNil          = 0x00
	msgDataspace    = 0x01
	msgLinkInfo     = 0x02
	msgLink         = 0x06
	msgContinuation = 0x10
	msgSymbolTable  = 0x11
)

// flagShared marks a message whose body points at a shared copy.
const flagShared = 0x02

// maxBlocks bounds the continuation chain of one object header.
const maxBlocks = 1 << 12

type message struct {
	typ   uint16
	flags uint8
	data  []byte
}

// block is a run of header messages between two absolute file positions.
type block struct {
	start, end int64
}

// readHeader reads every message of the object header at addr, following
// continuation blocks.
func readHeader(r *reader, addr uint64) ([]message, error) {
	peek, err := r.at(addr).bytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", addr, err)
	}
	if string(peek) == "OHDR" {
		return readHeaderV2(r, addr)
	}
	if peek[0] == 1 {
		return readHeaderV1(r, addr)
	}
	return nil, fmt.Errorf("%w: no object header at %d", ErrCorrupt, addr)
}

/*
Version 1 object header:
0       1     Version (1)
1       1     Reserved
2       2     Number of header messages
4       4     Object reference count
8       4     Object header size
12      4     Reserved (padding to 8 bytes)
16      var   Messages

Each message:
0       2     Type
2       2     Size of message data, a multiple of 8
4       1     Flags
5       3     Reserved
8       var   Message data
*/
func readHeaderV1(r *reader, addr uint64) ([]message, error) {
	hr := r.at(addr)
	prefix, err := hr.bytes(16)
	if err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(prefix[8:])
	blocks := []block{{hr.pos, hr.pos + int64(size)}}

	var msgs []message
	for i := 0; i < len(blocks); i++ {
		if i >= maxBlocks {
			return nil, fmt.Errorf("%w: object header at %d has too many continuations", ErrCorrupt, addr)
		}
		br := *r
		br.pos = blocks[i].start
		for br.pos+8 <= blocks[i].end {
			mh, err := br.bytes(8)
			if err != nil {
				return nil, err
			}
			m := message{
				typ:   binary.LittleEndian.Uint16(mh),
				flags: mh[4],
			}
			n := int(binary.LittleEndian.Uint16(mh[2:]))
			if br.pos+int64(n) > blocks[i].end {
				return nil, fmt.Errorf("%w: message overruns object header at %d", ErrCorrupt, addr)
			}
			if m.data, err = br.bytes(n); err != nil {
				return nil, err
			}
			if blocks, err = collect(r, &msgs, m, blocks); err != nil {
				return nil, err
			}
		}
	}
	return msgs, nil
}

/*
Version 2 object header:
0       4     Signature ("OHDR")
4       1     Version (2)
5       1     Flags
                Bit 0-1: width of the chunk #0 size field (1 << value bytes)
                Bit 2: message creation order tracked
                Bit 4: attribute phase change values stored
                Bit 5: times stored
6       16    Access, modification, change and birth times (flag bit 5)
var     4     Max compact and min dense attributes (flag bit 4)
var     1-8   Size of chunk #0
var     var   Messages
var     4     Checksum

Each message:
0       1     Type
1       2     Size of message data
3       1     Flags
4       2     Creation order (header flag bit 2)
var     var   Message data

Continuation blocks start with "OCHK" and end with a checksum.
*/
func readHeaderV2(r *reader, addr uint64) ([]message, error) {
	hr := r.at(addr)
	hr.skip(4)
	version, err := hr.uint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: object header version %d", ErrUnsupported, version)
	}
	flags, err := hr.uint8()
	if err != nil {
		return nil, err
	}
	if flags&0x20 != 0 {
		hr.skip(16)
	}
	if flags&0x10 != 0 {
		hr.skip(4)
	}
	size, err := hr.uintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}
	if size > maxField {
		return nil, fmt.Errorf("%w: object header at %d claims %d bytes", ErrCorrupt, addr, size)
	}
	blocks := []block{{hr.pos, hr.pos + int64(size)}}

	hdrLen := int64(4)
	if flags&0x04 != 0 {
		hdrLen += 2
	}
	var msgs []message
	for i := 0; i < len(blocks); i++ {
		if i >= maxBlocks {
			return nil, fmt.Errorf("%w: object header at %d has too many continuations", ErrCorrupt, addr)
		}
		br := *r
		br.pos = blocks[i].start
		if i > 0 {
			if err := br.signature("OCHK"); err != nil {
				return nil, err
			}
			// The checksum closes continuation blocks too.
			blocks[i].end -= 4
		}
		// Gaps shorter than a message header pad the end of a block.
		for br.pos+hdrLen <= blocks[i].end {
			mh, err := br.bytes(int(hdrLen))
			if err != nil {
				return nil, err
			}
			m := message{typ: uint16(mh[0]), flags: mh[3]}
			n := int(binary.LittleEndian.Uint16(mh[1:]))
			if br.pos+int64(n) > blocks[i].end {
				return nil, fmt.Errorf("%w: message overruns object header at %d", ErrCorrupt, addr)
			}
			if m.data, err = br.bytes(n); err != nil {
				return nil, err
			}
			if blocks, err = collect(r, &msgs, m, blocks); err != nil {
				return nil, err
			}
		}
	}
	return msgs, nil
}

// collect appends m to msgs, or queues the block a continuation message
// points at.
func collect(r *reader, msgs *[]message, m message, blocks []block) ([]block, error) {
	switch {
	case m.typ == msgNil:
	case m.typ == msgContinuation:
		c := cursor{b: m.data}
		off := c.uint(r.offsetSize)
		n := c.uint(r.lengthSize)
		if c.err != nil {
			return nil, c.err
		}
		if n > maxField {
			return nil, fmt.Errorf("%w: continuation block of %d bytes", ErrCorrupt, n)
		}
		start := r.base + int64(off)
		blocks = append(blocks, block{start, start + int64(n)})
	case m.flags&flagShared != 0:
	default:
		*msgs = append(*msgs, m)
	}
	return blocks, nil
}
