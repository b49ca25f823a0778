// Package h5test builds small HDF5 files for tests.
//
// The files use a version 0 superblock, version 1 object headers and
// symbol-table groups, the layout older netCDF-4 libraries write, so no
// structure needs a checksum. Datasets hold float32 or float64 values and
// may be chunked, growable, dimension scales, or attached to dimension
// scales through a DIMENSION_LIST attribute.
package h5test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Unlimited is the maximum dimension of a growable axis.
const Unlimited = ^uint64(0)

const undefined = ^uint64(0)

// Attr is a scalar attribute holding a string or a float64.
type Attr struct {
	Name  string
	Value interface{}
}

// Dataset describes one dataset.
type Dataset struct {
	Name string
	Dims []uint64
	// MaxDims is nil for a dataset that cannot grow.
	MaxDims []uint64
	// Chunk is the chunk shape; nil stores the data contiguously.
	Chunk []uint64
	// Data is a row-major []float32 or []float64.
	Data  interface{}
	Attrs []Attr
	// Scale makes the dataset a dimension scale with this NAME.
	Scale string
	// DimList names a dimension scale in the same group for each axis.
	DimList []string
}

// Group describes a group and everything below it.
type Group struct {
	Name     string
	Attrs    []Attr
	Datasets []Dataset
	Groups   []Group
}

// Build encodes root as an HDF5 file.
func Build(root Group) ([]byte, error) {
	b := &builder{}
	b.buf = make([]byte, superblockSize)
	rootAddr, btree, heap, err := b.group(root)
	if err != nil {
		return nil, err
	}

	sb := b.buf[:superblockSize]
	copy(sb, []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'})
	sb[13], sb[14] = 8, 8
	le.PutUint16(sb[16:], 4)
	le.PutUint16(sb[18:], 16)
	le.PutUint64(sb[24:], 0)
	le.PutUint64(sb[32:], undefined)
	le.PutUint64(sb[40:], uint64(len(b.buf)))
	le.PutUint64(sb[48:], undefined)
	// Root symbol table entry, caching the root's B-tree and heap.
	le.PutUint64(sb[56:], 0)
	le.PutUint64(sb[64:], rootAddr)
	le.PutUint32(sb[72:], 1)
	le.PutUint64(sb[80:], btree)
	le.PutUint64(sb[88:], heap)
	return b.buf, nil
}

// WriteFile builds root into a file named name in a test temp directory
// and returns its path.
func WriteFile(t testing.TB, name string, root Group) string {
	t.Helper()
	content, err := Build(root)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return p
}

// Climate returns a group laid out the way netCDF-4 writes a growable
// field: a record dimension scale "time", a fixed scale "lat", a field
// "tas" over both whose values are t*10 + y, and a subgroup "forecast"
// holding a fixed "depth".
func Climate() Group {
	const nt, ny = 5, 3
	times := make([]float64, nt)
	for i := range times {
		times[i] = float64(i) * 6
	}
	tas := make([]float32, nt*ny)
	for i := range tas {
		tas[i] = float32(i/ny*10 + i%ny)
	}
	return Group{
		Attrs: []Attr{{"title", "hdf5 fixture"}},
		Datasets: []Dataset{
			{
				Name: "time", Dims: []uint64{nt}, MaxDims: []uint64{Unlimited}, Chunk: []uint64{1},
				Data: times, Scale: "time",
				Attrs: []Attr{{"units", "hours since 2000-01-01"}},
			},
			{
				Name: "lat", Dims: []uint64{ny}, Data: []float32{-10, 0, 10}, Scale: "lat",
				Attrs: []Attr{{"units", "degrees_north"}},
			},
			{
				Name: "tas", Dims: []uint64{nt, ny}, MaxDims: []uint64{Unlimited, ny}, Chunk: []uint64{1, ny},
				Data: tas, DimList: []string{"time", "lat"},
				Attrs: []Attr{{"units", "K"}, {"scale_factor", 1.5}},
			},
		},
		Groups: []Group{{
			Name:     "forecast",
			Attrs:    []Attr{{"comment", "nested"}},
			Datasets: []Dataset{{Name: "depth", Dims: []uint64{2}, Data: []float64{5, 50}}},
		}},
	}
}

var le = binary.LittleEndian

const superblockSize = 96

type builder struct {
	buf []byte
}

// alloc appends p at the next 8-byte boundary and returns its address.
func (b *builder) alloc(p []byte) uint64 {
	for len(b.buf)%8 != 0 {
		b.buf = append(b.buf, 0)
	}
	addr := uint64(len(b.buf))
	b.buf = append(b.buf, p...)
	return addr
}

// group writes g's datasets, subgroups and symbol table, then its header.
func (b *builder) group(g Group) (addr, btree, heap uint64, err error) {
	type entry struct {
		name  string
		addr  uint64
		group bool
		btree uint64
		heap  uint64
	}
	var entries []entry
	scales := make(map[string]uint64)

	ordered := make([]Dataset, 0, len(g.Datasets))
	for _, d := range g.Datasets {
		if len(d.DimList) == 0 {
			ordered = append(ordered, d)
		}
	}
	for _, d := range g.Datasets {
		if len(d.DimList) > 0 {
			ordered = append(ordered, d)
		}
	}
	for _, d := range ordered {
		a, err := b.dataset(d, scales)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%s: %w", d.Name, err)
		}
		scales[d.Name] = a
		entries = append(entries, entry{name: d.Name, addr: a})
	}
	for _, sub := range g.Groups {
		a, bt, hp, err := b.group(sub)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%s: %w", sub.Name, err)
		}
		entries = append(entries, entry{name: sub.Name, addr: a, group: true, btree: bt, heap: hp})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	// Local heap: offset 0 holds the empty name.
	names := make([]byte, 8)
	offsets := make([]uint64, len(entries))
	for i, e := range entries {
		offsets[i] = uint64(len(names))
		names = append(names, pad8([]byte(e.name+"\x00"))...)
	}
	dataAddr := b.alloc(names)
	lh := make([]byte, 32)
	copy(lh, "HEAP")
	le.PutUint64(lh[8:], uint64(len(names)))
	le.PutUint64(lh[16:], undefined)
	le.PutUint64(lh[24:], dataAddr)
	heap = b.alloc(lh)

	snod := make([]byte, 8+40*len(entries))
	copy(snod, "SNOD")
	snod[4] = 1
	le.PutUint16(snod[6:], uint16(len(entries)))
	for i, e := range entries {
		ste := snod[8+40*i:]
		le.PutUint64(ste, offsets[i])
		le.PutUint64(ste[8:], e.addr)
		if e.group {
			le.PutUint32(ste[16:], 1)
			le.PutUint64(ste[24:], e.btree)
			le.PutUint64(ste[32:], e.heap)
		}
	}
	snodAddr := b.alloc(snod)

	tree := make([]byte, 24+24)
	copy(tree, "TREE")
	le.PutUint16(tree[6:], 1)
	le.PutUint64(tree[8:], undefined)
	le.PutUint64(tree[16:], undefined)
	le.PutUint64(tree[24:], 0)
	le.PutUint64(tree[32:], snodAddr)
	if n := len(offsets); n > 0 {
		le.PutUint64(tree[40:], offsets[n-1])
	}
	btree = b.alloc(tree)

	st := make([]byte, 16)
	le.PutUint64(st, btree)
	le.PutUint64(st[8:], heap)
	msgs := []message{{typ: 0x11, data: st}}
	for _, a := range g.Attrs {
		m, err := attribute(a)
		if err != nil {
			return 0, 0, 0, err
		}
		msgs = append(msgs, m)
	}
	return b.alloc(header(msgs)), btree, heap, nil
}

func (b *builder) dataset(d Dataset, scales map[string]uint64) (uint64, error) {
	raw, dtype, size, err := encodeData(d.Data)
	if err != nil {
		return 0, err
	}
	n := uint64(1)
	for _, v := range d.Dims {
		n *= v
	}
	if uint64(len(raw)) != n*uint64(size) {
		return 0, fmt.Errorf("%d bytes of data for %d elements", len(raw), n)
	}

	var layout []byte
	if d.Chunk == nil {
		addr := b.alloc(raw)
		layout = make([]byte, 18)
		layout[0], layout[1] = 3, 1
		le.PutUint64(layout[2:], addr)
		le.PutUint64(layout[10:], uint64(len(raw)))
	} else {
		if len(d.Chunk) != len(d.Dims) {
			return 0, fmt.Errorf("chunk rank %d for %d dimensions", len(d.Chunk), len(d.Dims))
		}
		index := b.chunks(d.Dims, d.Chunk, raw, size)
		layout = make([]byte, 11+4*len(d.Chunk)+4)
		layout[0], layout[1], layout[2] = 3, 2, byte(len(d.Chunk)+1)
		le.PutUint64(layout[3:], index)
		for i, c := range d.Chunk {
			le.PutUint32(layout[11+4*i:], uint32(c))
		}
		le.PutUint32(layout[11+4*len(d.Chunk):], uint32(size))
	}

	msgs := []message{
		{typ: 0x01, data: dataspace(d.Dims, d.MaxDims)},
		{typ: 0x03, data: dtype},
		{typ: 0x08, data: layout},
	}
	if d.Scale != "" {
		msgs = append(msgs,
			stringAttr("CLASS", "DIMENSION_SCALE"),
			stringAttr("NAME", d.Scale))
	}
	if len(d.DimList) > 0 {
		if len(d.DimList) != len(d.Dims) {
			return 0, fmt.Errorf("%d dimension scales for %d dimensions", len(d.DimList), len(d.Dims))
		}
		m, err := b.dimensionList(d.DimList, scales)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, m)
	}
	for _, a := range d.Attrs {
		m, err := attribute(a)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, m)
	}
	return b.alloc(header(msgs)), nil
}

// chunks writes every chunk of a row-major array and a one-level chunk
// B-tree indexing them, returning the B-tree address. Edge chunks are
// padded with zeros.
func (b *builder) chunks(dims, chunk []uint64, raw []byte, size int) uint64 {
	rank := len(dims)
	grid := make([]uint64, rank)
	total := 1
	for i := range dims {
		grid[i] = (dims[i] + chunk[i] - 1) / chunk[i]
		total *= int(grid[i])
	}
	chunkElems := uint64(1)
	for _, c := range chunk {
		chunkElems *= c
	}

	keySize := 8 + 8*(rank+1)
	tree := make([]byte, 24+total*(keySize+8)+keySize)
	copy(tree, "TREE")
	tree[4] = 1
	le.PutUint16(tree[6:], uint16(total))
	le.PutUint64(tree[8:], undefined)
	le.PutUint64(tree[16:], undefined)

	pos := make([]uint64, rank)
	for c := 0; c < total; c++ {
		// Chunk origin in element coordinates.
		rem := c
		for i := rank - 1; i >= 0; i-- {
			pos[i] = uint64(rem%int(grid[i])) * chunk[i]
			rem /= int(grid[i])
		}
		data := make([]byte, chunkElems*uint64(size))
		for e := uint64(0); e < chunkElems; e++ {
			src, inside := uint64(0), true
			erem := e
			stride := uint64(1)
			idx := make([]uint64, rank)
			for i := rank - 1; i >= 0; i-- {
				idx[i] = pos[i] + erem%chunk[i]
				erem /= chunk[i]
			}
			for i := rank - 1; i >= 0; i-- {
				if idx[i] >= dims[i] {
					inside = false
					break
				}
				src += idx[i] * stride
				stride *= dims[i]
			}
			if inside {
				copy(data[e*uint64(size):], raw[src*uint64(size):(src+1)*uint64(size)])
			}
		}
		addr := b.alloc(data)

		key := tree[24+c*(keySize+8):]
		le.PutUint32(key, uint32(len(data)))
		for i := 0; i < rank; i++ {
			le.PutUint64(key[8+8*i:], pos[i])
		}
		le.PutUint64(key[keySize:], addr)
	}
	last := tree[24+total*(keySize+8):]
	for i := 0; i < rank; i++ {
		le.PutUint64(last[8+8*i:], dims[i])
	}
	return b.alloc(tree)
}

// dimensionList writes a global heap holding one object reference per axis
// and returns the DIMENSION_LIST attribute pointing into it.
func (b *builder) dimensionList(names []string, scales map[string]uint64) (message, error) {
	col := make([]byte, 16, 16+24*len(names))
	copy(col, "GCOL")
	col[4] = 1
	for i, name := range names {
		addr, ok := scales[name]
		if !ok {
			return message{}, fmt.Errorf("no dimension scale %q", name)
		}
		obj := make([]byte, 24)
		le.PutUint16(obj, uint16(i+1))
		le.PutUint64(obj[8:], 8)
		le.PutUint64(obj[16:], addr)
		col = append(col, obj...)
	}
	le.PutUint64(col[8:], uint64(len(col)))
	heap := b.alloc(col)

	// Variable-length sequence of object references.
	dtype := []byte{0x19, 0, 0, 0, 16, 0, 0, 0, 0x17, 0, 0, 0, 8, 0, 0, 0}
	value := make([]byte, 16*len(names))
	for i := range names {
		le.PutUint32(value[16*i:], 1)
		le.PutUint64(value[16*i+4:], heap)
		le.PutUint32(value[16*i+12:], uint32(i+1))
	}
	return attributeMessage("DIMENSION_LIST", dtype, dataspace([]uint64{uint64(len(names))}, nil), value), nil
}

type message struct {
	typ  uint16
	data []byte
}

// header encodes a version 1 object header.
func header(msgs []message) []byte {
	var body []byte
	for _, m := range msgs {
		data := pad8(m.data)
		if len(data) == 0 {
			data = make([]byte, 8)
		}
		mh := make([]byte, 8)
		le.PutUint16(mh, m.typ)
		le.PutUint16(mh[2:], uint16(len(data)))
		body = append(body, mh...)
		body = append(body, data...)
	}
	h := make([]byte, 16, 16+len(body))
	h[0] = 1
	le.PutUint16(h[2:], uint16(len(msgs)))
	le.PutUint32(h[4:], 1)
	le.PutUint32(h[8:], uint32(len(body)))
	return append(h, body...)
}

// dataspace encodes a version 1 dataspace message.
func dataspace(dims, max []uint64) []byte {
	p := make([]byte, 8, 8+16*len(dims))
	p[0], p[1] = 1, byte(len(dims))
	if max != nil {
		p[2] = 1
	}
	for _, d := range dims {
		p = le.AppendUint64(p, d)
	}
	for _, m := range max {
		p = le.AppendUint64(p, m)
	}
	return p
}

func floatType(size int) []byte {
	p := make([]byte, 20)
	p[0], p[1] = 0x11, 0x20
	le.PutUint32(p[4:], uint32(size))
	if size == 4 {
		p[2] = 31
		le.PutUint16(p[10:], 32)
		p[12], p[13], p[14], p[15] = 23, 8, 0, 23
		le.PutUint32(p[16:], 127)
	} else {
		p[2] = 63
		le.PutUint16(p[10:], 64)
		p[12], p[13], p[14], p[15] = 52, 11, 0, 52
		le.PutUint32(p[16:], 1023)
	}
	return p
}

func encodeData(v interface{}) (raw, dtype []byte, size int, err error) {
	switch x := v.(type) {
	case []float32:
		for _, f := range x {
			raw = le.AppendUint32(raw, math.Float32bits(f))
		}
		return raw, floatType(4), 4, nil
	case []float64:
		for _, f := range x {
			raw = le.AppendUint64(raw, math.Float64bits(f))
		}
		return raw, floatType(8), 8, nil
	}
	return nil, nil, 0, fmt.Errorf("unsupported data type %T", v)
}

func attribute(a Attr) (message, error) {
	switch v := a.Value.(type) {
	case string:
		return stringAttr(a.Name, v), nil
	case float64:
		return attributeMessage(a.Name, floatType(8), dataspace(nil, nil), le.AppendUint64(nil, math.Float64bits(v))), nil
	}
	return message{}, fmt.Errorf("attribute %s: unsupported type %T", a.Name, a.Value)
}

func stringAttr(name, value string) message {
	dtype := make([]byte, 8)
	dtype[0] = 0x13
	le.PutUint32(dtype[4:], uint32(len(value)+1))
	return attributeMessage(name, dtype, dataspace(nil, nil), []byte(value+"\x00"))
}

// attributeMessage encodes a version 1 attribute message, whose name,
// datatype and dataspace are each padded to 8 bytes.
func attributeMessage(name string, dtype, space, value []byte) message {
	p := make([]byte, 8)
	p[0] = 1
	le.PutUint16(p[2:], uint16(len(name)+1))
	le.PutUint16(p[4:], uint16(len(dtype)))
	le.PutUint16(p[6:], uint16(len(space)))
	p = append(p, pad8([]byte(name+"\x00"))...)
	p = append(p, pad8(dtype)...)
	p = append(p, pad8(space)...)
	p = append(p, value...)
	return message{typ: 0x0c, data: p}
}

func pad8(p []byte) []byte {
	n := (len(p) + 7) &^ 7
	out := make([]byte, n)
	copy(out, p)
	return out
}
