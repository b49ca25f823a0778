package h5meta

import (
	"fmt"
	"math/bits"
)

// denseLinks lists the links of a group stored in a fractal heap and
// indexed by name in a version 2 B-tree.
func (w *walker) denseLinks(heapAddr, indexAddr uint64) ([]link, error) {
	fh, err := readFractalHeap(w.r, heapAddr)
	if err != nil {
		return nil, err
	}
	ids, err := w.heapIDs(indexAddr, fh.idLen)
	if err != nil {
		return nil, err
	}
	links := make([]link, 0, len(ids))
	for _, id := range ids {
		obj, err := fh.object(id)
		if err != nil {
			return nil, err
		}
		l, err := parseLink(obj, w.r.offsetSize)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

/*
Fractal heap header (version 0):
0       4     Signature ("FRHP")
4       1     Version
5       2     Heap ID length
7       2     I/O filters' encoded length
9       1     Flags
10      4     Maximum size of managed objects
14      L     Next huge object ID
        O     v2 B-tree address of huge objects
        L     Amount of free space in managed blocks
        O     Address of managed block free space manager
        8×L   Managed, huge and tiny object statistics
        2     Table width
        L     Starting block size
        L     Maximum direct block size
        2     Maximum heap size (bits)
        2     Starting number of rows in root indirect block
        O     Address of root block
        2     Current number of rows in root indirect block
*/
type fractalHeap struct {
	r           *reader
	idLen       int
	width       int
	startBlock  uint64
	maxDirect   uint64
	offsetBytes int
	lengthBytes int
	root        uint64
	rootRows    int
}

func readFractalHeap(r *reader, addr uint64) (*fractalHeap, error) {
	hr := r.at(addr)
	if err := hr.signature("FRHP"); err != nil {
		return nil, err
	}
	head, err := hr.bytes(10)
	if err != nil {
		return nil, err
	}
	if head[0] != 0 {
		return nil, fmt.Errorf("%w: fractal heap version %d", ErrUnsupported, head[0])
	}
	fh := &fractalHeap{r: r, idLen: int(decodeUint(head[1:3]))}
	if filters := decodeUint(head[3:5]); filters != 0 {
		return nil, fmt.Errorf("%w: filtered fractal heap", ErrUnsupported)
	}
	maxObject := decodeUint(head[6:10])

	hr.skip(r.lengthSize + r.offsetSize + r.lengthSize + r.offsetSize + 8*r.lengthSize)
	width, err := hr.uint16()
	if err != nil {
		return nil, err
	}
	if fh.startBlock, err = hr.length(); err != nil {
		return nil, err
	}
	if fh.maxDirect, err = hr.length(); err != nil {
		return nil, err
	}
	heapBits, err := hr.uint16()
	if err != nil {
		return nil, err
	}
	hr.skip(2)
	if fh.root, err = hr.offset(); err != nil {
		return nil, err
	}
	rows, err := hr.uint16()
	if err != nil {
		return nil, err
	}

	if !pow2(uint64(width)) || !pow2(fh.startBlock) || !pow2(fh.maxDirect) || fh.maxDirect < fh.startBlock {
		return nil, fmt.Errorf("%w: fractal heap doubling table %d×%d..%d", ErrCorrupt, width, fh.startBlock, fh.maxDirect)
	}
	fh.width = int(width)
	fh.rootRows = int(rows)
	fh.offsetBytes = (int(heapBits) + 7) / 8
	fh.lengthBytes = (log2(fh.maxDirect) + 7) / 8
	if n := encodedSize(maxObject); n < fh.lengthBytes {
		fh.lengthBytes = n
	}
	return fh, nil
}

// object returns the bytes of the heap object named by id.
func (fh *fractalHeap) object(id []byte) ([]byte, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("%w: empty heap ID", ErrCorrupt)
	}
	switch (id[0] >> 4) & 0x03 {
	case 0:
		c := cursor{b: id[1:]}
		off := c.uint(fh.offsetBytes)
		n := c.uint(fh.lengthBytes)
		if c.err != nil {
			return nil, c.err
		}
		addr, err := fh.locate(off)
		if err != nil {
			return nil, err
		}
		if n > fh.maxDirect {
			return nil, fmt.Errorf("%w: heap object of %d bytes", ErrCorrupt, n)
		}
		return fh.r.at(addr).bytes(int(n))
	case 2:
		// Tiny objects are stored in the ID itself.
		n, data := int(id[0]&0x0f)+1, id[1:]
		if fh.idLen > 18 && len(id) > 1 {
			n, data = int(id[0]&0x0f)<<8|int(id[1])+1, id[2:]
		}
		if n > len(data) {
			return nil, fmt.Errorf("%w: tiny heap object of %d bytes", ErrCorrupt, n)
		}
		return data[:n], nil
	}
	return nil, fmt.Errorf("%w: huge fractal heap object", ErrUnsupported)
}

// locate returns the file address of the managed object at heap offset off.
func (fh *fractalHeap) locate(off uint64) (uint64, error) {
	if fh.r.undefined(fh.root) {
		return 0, fmt.Errorf("%w: object in an empty fractal heap", ErrCorrupt)
	}
	if fh.rootRows == 0 {
		// The root is a direct block at heap offset zero. Object offsets
		// count from the start of the block, header included.
		return fh.root + off, nil
	}
	return fh.locateIn(fh.root, fh.rootRows, off, 0)
}

func (fh *fractalHeap) rowSize(row int) uint64 {
	if row == 0 {
		return fh.startBlock
	}
	return fh.startBlock << uint(row-1)
}

func (fh *fractalHeap) directRows() int {
	return log2(fh.maxDirect) - log2(fh.startBlock) + 2
}

/*
Fractal heap indirect block:
0       4     Signature ("FHIB")
4       1     Version
5       O     Heap header address
        var   Block offset (heap offset bytes)
        var   Child addresses, width per row: direct rows then indirect rows
*/
func (fh *fractalHeap) locateIn(addr uint64, rows int, off uint64, depth int) (uint64, error) {
	if depth > maxDepth || rows > 64 {
		return 0, fmt.Errorf("%w: fractal heap indirect block too deep", ErrCorrupt)
	}
	br := fh.r.at(addr)
	if err := br.signature("FHIB"); err != nil {
		return 0, err
	}
	br.skip(1 + fh.r.offsetSize)
	start, err := br.uintN(fh.offsetBytes)
	if err != nil {
		return 0, err
	}

	blockOff := start
	for row := 0; row < rows; row++ {
		size := fh.rowSize(row)
		for col := 0; col < fh.width; col++ {
			child, err := br.offset()
			if err != nil {
				return 0, err
			}
			if off >= blockOff && off < blockOff+size {
				if fh.r.undefined(child) {
					return 0, fmt.Errorf("%w: heap offset %d is not allocated", ErrCorrupt, off)
				}
				if row < fh.directRows() {
					return child + (off - blockOff), nil
				}
				// An indirect child spanning size bytes has enough rows
				// to double up to that size.
				childRows := log2(size) - log2(fh.startBlock) - log2(uint64(fh.width)) + 1
				return fh.locateIn(child, childRows, off, depth+1)
			}
			blockOff += size
		}
	}
	return 0, fmt.Errorf("%w: heap offset %d outside the heap", ErrCorrupt, off)
}

/*
Version 2 B-tree header:
0       4     Signature ("BTHD")
4       1     Version (0)
5       1     Type (5: link name index, 6: link creation order index)
6       4     Node size
10      2     Record size
12      2     Depth
14      1     Split percent
15      1     Merge percent
16      O     Root node address
16+O    2     Number of records in the root node
18+O    L     Total number of records

Leaf nodes ("BTLF") hold records. Internal nodes ("BTIN") hold records
followed by child pointers: an address, the child's record count and, above
depth 1, the total records below the child. Count widths depend on how many
records fit in a node.
*/
type btree2 struct {
	r        *reader
	typ      uint8
	nodeSize uint64
	recSize  int
	// nrecSize is the width of a child record count; totalSize[d] the
	// width of the total below a child at depth d.
	nrecSize  int
	totalSize []int
}

// nodePrefix is the signature, version, type and checksum of every node.
const nodePrefix = 10

// heapIDs returns the heap ID stored in each record of a link index B-tree.
func (w *walker) heapIDs(addr uint64, idLen int) ([][]byte, error) {
	hr := w.r.at(addr)
	if err := hr.signature("BTHD"); err != nil {
		return nil, err
	}
	head, err := hr.bytes(12)
	if err != nil {
		return nil, err
	}
	if head[0] != 0 {
		return nil, fmt.Errorf("%w: v2 B-tree version %d", ErrUnsupported, head[0])
	}
	bt := &btree2{
		r:        w.r,
		typ:      head[1],
		nodeSize: decodeUint(head[2:6]),
		recSize:  int(decodeUint(head[6:8])),
	}
	depth := int(decodeUint(head[8:10]))
	root, err := hr.offset()
	if err != nil {
		return nil, err
	}
	rootRecs, err := hr.uint16()
	if err != nil {
		return nil, err
	}

	prefix := 4
	switch bt.typ {
	case 5:
	case 6:
		prefix = 8
	default:
		return nil, fmt.Errorf("%w: v2 B-tree type %d for links", ErrUnsupported, bt.typ)
	}
	if bt.recSize < prefix+idLen || depth > maxDepth || bt.nodeSize <= nodePrefix {
		return nil, fmt.Errorf("%w: v2 B-tree record size %d, depth %d", ErrCorrupt, bt.recSize, depth)
	}
	if w.r.undefined(root) {
		return nil, nil
	}
	bt.layout(depth)

	var recs [][]byte
	if err := bt.node(root, int(rootRecs), depth, &recs); err != nil {
		return nil, err
	}
	ids := make([][]byte, len(recs))
	for i, rec := range recs {
		ids[i] = rec[prefix : prefix+idLen]
	}
	return ids, nil
}

// layout derives the count field widths from the node and record sizes.
func (bt *btree2) layout(depth int) {
	maxRecs := (bt.nodeSize - nodePrefix) / uint64(bt.recSize)
	bt.nrecSize = encodedSize(maxRecs)
	bt.totalSize = make([]int, depth+1)
	cum := maxRecs
	for d := 1; d <= depth; d++ {
		ptr := uint64(bt.r.offsetSize + bt.nrecSize + bt.totalSize[d-1])
		n := uint64(0)
		if bt.nodeSize > nodePrefix+ptr {
			n = (bt.nodeSize - nodePrefix - ptr) / (uint64(bt.recSize) + ptr)
		}
		cum = (n+1)*cum + n
		bt.totalSize[d] = encodedSize(cum)
	}
}

func (bt *btree2) node(addr uint64, nrecs, depth int, recs *[][]byte) error {
	nr := bt.r.at(addr)
	sig := "BTLF"
	if depth > 0 {
		sig = "BTIN"
	}
	if err := nr.signature(sig); err != nil {
		return err
	}
	nr.skip(2)
	if uint64(nrecs*bt.recSize) > bt.nodeSize {
		return fmt.Errorf("%w: %d records in a %d byte node", ErrCorrupt, nrecs, bt.nodeSize)
	}
	body, err := nr.bytes(nrecs * bt.recSize)
	if err != nil {
		return err
	}
	for i := 0; i < nrecs; i++ {
		*recs = append(*recs, body[i*bt.recSize:(i+1)*bt.recSize])
	}
	if depth == 0 {
		return nil
	}

	type child struct {
		addr  uint64
		nrecs int
	}
	children := make([]child, nrecs+1)
	for i := range children {
		if children[i].addr, err = nr.offset(); err != nil {
			return err
		}
		n, err := nr.uintN(bt.nrecSize)
		if err != nil {
			return err
		}
		children[i].nrecs = int(n)
		if depth > 1 {
			nr.skip(bt.totalSize[depth-1])
		}
	}
	for _, c := range children {
		if err := bt.node(c.addr, c.nrecs, depth-1, recs); err != nil {
			return err
		}
	}
	return nil
}

func pow2(n uint64) bool { return n != 0 && n&(n-1) == 0 }

// log2 of a power of two.
func log2(n uint64) int { return bits.Len64(n) - 1 }

// encodedSize is the number of bytes needed to store values up to m.
func encodedSize(m uint64) int {
	if m == 0 {
		return 1
	}
	return (bits.Len64(m)-1)/8 + 1
}
