package h5meta

import "fmt"

/*
Dataspace message (type 0x0001):
0       1     Version (1 or 2)
1       1     Rank
2       1     Flags (bit 0: maximum dimensions present)
3       1     Reserved (v1) or dataspace type (v2: 0 scalar, 1 simple, 2 null)
4       4     Reserved (v1 only)
var     L×R   Dimension sizes
var     L×R   Maximum dimension sizes (flag bit 0)
*/
func parseDataspace(data []byte, lengthSize int) (Space, error) {
	c := cursor{b: data}
	version := c.uint8()
	rank := int(c.uint8())
	flags := c.uint8()
	simple := true
	switch version {
	case 1:
		c.next(5)
	case 2:
		simple = c.uint8() == 1
	default:
		if c.err == nil {
			return Space{}, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, version)
		}
	}
	if c.err != nil {
		return Space{}, c.err
	}
	if !simple || rank == 0 {
		return Space{}, nil
	}

	var sp Space
	sp.Dims = make([]uint64, rank)
	for i := range sp.Dims {
		sp.Dims[i] = c.uint(lengthSize)
	}
	if flags&0x01 != 0 {
		sp.MaxDims = make([]uint64, rank)
		for i := range sp.MaxDims {
			if m := c.uint(lengthSize); m == allOnes(lengthSize) {
				sp.MaxDims[i] = Unlimited
			} else {
				sp.MaxDims[i] = m
			}
		}
	}
	if c.err != nil {
		return Space{}, c.err
	}
	return sp, nil
}

// link is one named child of a group.
type link struct {
	name string
	addr uint64
	// hard is false for soft and external links, which carry no address.
	hard bool
}

/*
Link message (type 0x0006):
0       1     Version (1)
1       1     Flags
                Bit 0-1: width of the name length field
                Bit 2: creation order present
                Bit 3: link type present
                Bit 4: name character set present
var     1     Link type (flag bit 3; 0 hard, 1 soft, 64 external)
var     8     Creation order (flag bit 2)
var     1     Character set (flag bit 4)
var     1-8   Name length
var     var   Name
var     O     Object header address (hard links)
*/
func parseLink(data []byte, offsetSize int) (link, error) {
	c := cursor{b: data}
	if v := c.uint8(); c.err == nil && v != 1 {
		return link{}, fmt.Errorf("%w: link message version %d", ErrUnsupported, v)
	}
	flags := c.uint8()
	kind := uint8(0)
	if flags&0x08 != 0 {
		kind = c.uint8()
	}
	if flags&0x04 != 0 {
		c.next(8)
	}
	if flags&0x10 != 0 {
		c.next(1)
	}
	n := c.uint(1 << (flags & 0x03))
	if n > uint64(len(data)) {
		return link{}, fmt.Errorf("%w: link name of %d bytes", ErrCorrupt, n)
	}
	l := link{name: string(c.next(int(n))), hard: kind == 0}
	if l.hard {
		l.addr = c.uint(offsetSize)
	}
	if c.err != nil {
		return link{}, c.err
	}
	return l, nil
}

/*
Link info message (type 0x0002):
0       1     Version (0)
1       1     Flags (bit 0: max creation index present, bit 1: creation order indexed)
var     8     Maximum creation index (flag bit 0)
var     O     Fractal heap address
var     O     Name index v2 B-tree address
var     O     Creation order index v2 B-tree address (flag bit 1)
*/
func parseLinkInfo(data []byte, offsetSize int) (heap, names uint64, err error) {
	c := cursor{b: data}
	if v := c.uint8(); c.err == nil && v != 0 {
		return 0, 0, fmt.Errorf("%w: link info version %d", ErrUnsupported, v)
	}
	if flags := c.uint8(); flags&0x01 != 0 {
		c.next(8)
	}
	heap = c.uint(offsetSize)
	names = c.uint(offsetSize)
	return heap, names, c.err
}

// parseSymbolTable decodes a symbol table message (type 0x0011): the
// addresses of the group's v1 B-tree and local heap.
func parseSymbolTable(data []byte, offsetSize int) (btree, heap uint64, err error) {
	c := cursor{b: data}
	btree = c.uint(offsetSize)
	heap = c.uint(offsetSize)
	return btree, heap, c.err
}
