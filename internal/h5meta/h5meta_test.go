package h5meta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kr/pretty"

	"github.com/robert-malhotra/go-dap/internal/h5test"
)

var le = binary.LittleEndian

func climateSpaces() Spaces {
	return Spaces{
		"/time":           {Dims: []uint64{5}, MaxDims: []uint64{Unlimited}},
		"/lat":            {Dims: []uint64{3}},
		"/tas":            {Dims: []uint64{5, 3}, MaxDims: []uint64{Unlimited, 3}},
		"/forecast/depth": {Dims: []uint64{2}},
	}
}

func TestReadSymbolTableGroups(t *testing.T) {
	content, err := h5test.Build(h5test.Climate())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	spaces, err := Read(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := pretty.Diff(spaces, climateSpaces()); len(diff) > 0 {
		t.Errorf("spaces differ: %v", diff)
	}
	if !spaces["/tas"].Growable(0) || spaces["/tas"].Growable(1) {
		t.Errorf("tas: expected only axis 0 to grow, got %v", spaces["/tas"].MaxDims)
	}
	if spaces["/lat"].Growable(0) {
		t.Error("lat: fixed dataset reported as growable")
	}
}

func TestReadUserBlock(t *testing.T) {
	content, err := h5test.Build(h5test.Climate())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	shifted := append(make([]byte, 512), content...)
	// Addresses stay relative to the superblock.
	le.PutUint64(shifted[512+24:], 512)

	spaces, err := Read(bytes.NewReader(shifted))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := pretty.Diff(spaces, climateSpaces()); len(diff) > 0 {
		t.Errorf("spaces differ: %v", diff)
	}
}

func TestReadFile(t *testing.T) {
	p := h5test.WriteFile(t, "climate.h5", h5test.Climate())
	spaces, err := ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(spaces) != 4 {
		t.Errorf("expected 4 datasets, got %d", len(spaces))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.h5")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: expected ErrNotExist, got %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	content, err := h5test.Build(h5test.Climate())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := Read(bytes.NewReader([]byte("CDF\x01 not an hdf5 file"))); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("netCDF classic: expected ErrNotHDF5, got %v", err)
	}
	if _, err := Read(bytes.NewReader(nil)); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("empty: expected ErrNotHDF5, got %v", err)
	}
	if _, err := Read(bytes.NewReader(content[:200])); err == nil {
		t.Error("truncated: expected an error")
	}

	badVersion := append([]byte(nil), content...)
	badVersion[8] = 9
	if _, err := Read(bytes.NewReader(badVersion)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("superblock version: expected ErrUnsupported, got %v", err)
	}

	badSize := append([]byte(nil), content...)
	badSize[13] = 3
	if _, err := Read(bytes.NewReader(badSize)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("offset size: expected ErrCorrupt, got %v", err)
	}

	badRoot := append([]byte(nil), content...)
	le.PutUint64(badRoot[64:], 8)
	if _, err := Read(bytes.NewReader(badRoot)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("root header: expected ErrCorrupt, got %v", err)
	}
}

func TestParseDataspace(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Space
	}{
		{
			"v1 fixed",
			[]byte{1, 1, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0, 0, 0, 0, 0},
			Space{Dims: []uint64{4}},
		},
		{
			"v1 unlimited",
			[]byte{1, 1, 1, 0, 0, 0, 0, 0,
				4, 0, 0, 0, 0, 0, 0, 0,
				0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			Space{Dims: []uint64{4}, MaxDims: []uint64{Unlimited}},
		},
		{
			"v2 bounded",
			[]byte{2, 2, 1, 1,
				2, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0,
				8, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0},
			Space{Dims: []uint64{2, 3}, MaxDims: []uint64{8, 3}},
		},
		{"v2 scalar", []byte{2, 0, 0, 0}, Space{}},
		{"v2 null", []byte{2, 0, 0, 2}, Space{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDataspace(tt.data, 8)
			if err != nil {
				t.Fatalf("parseDataspace failed: %v", err)
			}
			if diff := pretty.Diff(got, tt.want); len(diff) > 0 {
				t.Errorf("space differs: %v", diff)
			}
		})
	}

	if _, err := parseDataspace([]byte{1, 2, 0, 0, 0, 0, 0, 0, 1}, 8); !errors.Is(err, ErrCorrupt) {
		t.Errorf("truncated: expected ErrCorrupt, got %v", err)
	}
	if _, err := parseDataspace([]byte{3, 0, 0, 0}, 8); !errors.Is(err, ErrUnsupported) {
		t.Errorf("version 3: expected ErrUnsupported, got %v", err)
	}

	// Four-byte lengths mark an unbounded axis with four 0xff bytes.
	got, err := parseDataspace([]byte{1, 1, 1, 0, 0, 0, 0, 0, 7, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, 4)
	if err != nil {
		t.Fatalf("parseDataspace failed: %v", err)
	}
	if !got.Growable(0) {
		t.Errorf("4-byte lengths: expected a growable axis, got %v", got.MaxDims)
	}
}

// file assembles a version 2 superblock file whose root object header is
// written last.
type file struct {
	b []byte
}

func newFile() *file {
	return &file{b: make([]byte, 48)}
}

func (f *file) put(p []byte) uint64 {
	addr := uint64(len(f.b))
	f.b = append(f.b, p...)
	return addr
}

func (f *file) finish(root uint64) []byte {
	copy(f.b, Signature)
	f.b[8], f.b[9], f.b[10] = 2, 8, 8
	le.PutUint64(f.b[12:], 0)
	le.PutUint64(f.b[20:], ^uint64(0))
	le.PutUint64(f.b[28:], uint64(len(f.b)))
	le.PutUint64(f.b[36:], root)
	return f.b
}

// msgs encodes version 2 header messages without creation order.
func msgs(pairs ...interface{}) []byte {
	var p []byte
	for i := 0; i < len(pairs); i += 2 {
		data := pairs[i+1].([]byte)
		p = append(p, byte(pairs[i].(int)))
		p = le.AppendUint16(p, uint16(len(data)))
		p = append(p, 0)
		p = append(p, data...)
	}
	return p
}

// ohdr encodes a version 2 object header with a four byte chunk size and
// a zero checksum.
func ohdr(body []byte) []byte {
	p := []byte{'O', 'H', 'D', 'R', 2, 0x02}
	p = le.AppendUint32(p, uint32(len(body)))
	p = append(p, body...)
	return append(p, 0, 0, 0, 0)
}

func hardLink(name string, addr uint64) []byte {
	p := []byte{1, 0, byte(len(name))}
	p = append(p, name...)
	return le.AppendUint64(p, addr)
}

func softLink(name, target string) []byte {
	p := []byte{1, 0x08, 1, byte(len(name))}
	p = append(p, name...)
	p = le.AppendUint16(p, uint16(len(target)))
	return append(p, target...)
}

func space(dims, max []uint64) []byte {
	p := []byte{2, byte(len(dims)), 0, 1}
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

func dataset(f *file, dims, max []uint64) uint64 {
	return f.put(ohdr(msgs(msgDataspace, space(dims, max))))
}

func TestReadCompactLinks(t *testing.T) {
	f := newFile()
	a := dataset(f, []uint64{10}, []uint64{Unlimited})
	b := dataset(f, []uint64{2, 2}, nil)
	s := dataset(f, nil, nil)

	// The second link lives in a continuation block.
	ochk := append([]byte("OCHK"), msgs(msgLink, hardLink("b", b), msgLink, softLink("alias", "/a"))...)
	ochk = append(ochk, 0, 0, 0, 0)
	cont := f.put(ochk)
	contMsg := le.AppendUint64(le.AppendUint64(nil, cont), uint64(len(ochk)))

	sub := f.put(ohdr(msgs(msgLink, hardLink("s", s))))
	// A trailing gap shorter than a message header pads the block.
	root := f.put(ohdr(append(msgs(
		msgLink, hardLink("a", a),
		msgContinuation, contMsg,
		msgLink, hardLink("sub", sub),
		msgLink, hardLink("again", a),
	), 0, 0)))

	spaces, err := Read(bytes.NewReader(f.finish(root)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := Spaces{
		"/a":     {Dims: []uint64{10}, MaxDims: []uint64{Unlimited}},
		"/b":     {Dims: []uint64{2, 2}},
		"/sub/s": {},
	}
	if diff := pretty.Diff(spaces, want); len(diff) > 0 {
		t.Errorf("spaces differ: %v", diff)
	}
}

func TestReadCycle(t *testing.T) {
	f := newFile()
	// The root links to itself.
	rootAddr := uint64(48)
	root := f.put(ohdr(msgs(msgLink, hardLink("self", rootAddr))))
	if root != rootAddr {
		t.Fatalf("root written at %d", root)
	}
	spaces, err := Read(bytes.NewReader(f.finish(root)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(spaces) != 0 {
		t.Errorf("expected no datasets, got %v", spaces)
	}
}

// denseHeap writes a fractal heap whose root is a single direct block
// holding objs, and returns its address and the managed ID of each object.
func denseHeap(f *file, objs [][]byte) (uint64, [][]byte) {
	hdr := []byte("FRHP")
	hdr = append(hdr, 0)
	hdr = le.AppendUint16(hdr, 7)
	hdr = le.AppendUint16(hdr, 0)
	hdr = append(hdr, 0)
	hdr = le.AppendUint32(hdr, 4096)
	hdr = append(hdr, make([]byte, 8+8+8+8+8*8)...)
	hdr = le.AppendUint16(hdr, 4)
	hdr = le.AppendUint64(hdr, 512)
	hdr = le.AppendUint64(hdr, 1<<16)
	hdr = le.AppendUint16(hdr, 32)
	hdr = le.AppendUint16(hdr, 0)
	rootAt := len(hdr)
	hdr = le.AppendUint64(hdr, 0)
	hdr = le.AppendUint16(hdr, 0)
	hdr = append(hdr, 0, 0, 0, 0)
	heap := f.put(hdr)

	block := []byte("FHDB")
	block = append(block, 0)
	block = le.AppendUint64(block, heap)
	block = le.AppendUint32(block, 0)
	var ids [][]byte
	for _, o := range objs {
		id := []byte{0}
		id = le.AppendUint32(id, uint32(len(block)))
		id = le.AppendUint16(id, uint16(len(o)))
		ids = append(ids, id)
		block = append(block, o...)
	}
	direct := f.put(block)
	le.PutUint64(f.b[heap+uint64(rootAt):], direct)
	return heap, ids
}

func records(ids [][]byte) []byte {
	var p []byte
	for i, id := range ids {
		p = le.AppendUint32(p, uint32(i))
		p = append(p, id...)
	}
	return p
}

func bthd(f *file, depth int, root uint64, nrecs, total int) uint64 {
	p := []byte("BTHD")
	p = append(p, 0, 5)
	p = le.AppendUint32(p, 512)
	p = le.AppendUint16(p, 11)
	p = le.AppendUint16(p, uint16(depth))
	p = append(p, 100, 40)
	p = le.AppendUint64(p, root)
	p = le.AppendUint16(p, uint16(nrecs))
	p = le.AppendUint64(p, uint64(total))
	return f.put(append(p, 0, 0, 0, 0))
}

func btreeNode(f *file, sig string, body []byte) uint64 {
	p := append([]byte(sig), 0, 5)
	p = append(p, body...)
	return f.put(append(p, 0, 0, 0, 0))
}

func linkInfo(heap, index uint64) []byte {
	p := []byte{0, 0}
	p = le.AppendUint64(p, heap)
	return le.AppendUint64(p, index)
}

func TestReadDenseLinks(t *testing.T) {
	f := newFile()
	x := dataset(f, []uint64{1}, nil)
	y := dataset(f, []uint64{2}, []uint64{Unlimited})
	z := dataset(f, []uint64{3}, nil)

	heap, ids := denseHeap(f, [][]byte{hardLink("x", x), hardLink("y", y), hardLink("z", z)})
	leaf := btreeNode(f, "BTLF", records(ids))
	index := bthd(f, 0, leaf, 3, 3)
	root := f.put(ohdr(msgs(msgLinkInfo, linkInfo(heap, index))))

	spaces, err := Read(bytes.NewReader(f.finish(root)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := Spaces{
		"/x": {Dims: []uint64{1}},
		"/y": {Dims: []uint64{2}, MaxDims: []uint64{Unlimited}},
		"/z": {Dims: []uint64{3}},
	}
	if diff := pretty.Diff(spaces, want); len(diff) > 0 {
		t.Errorf("spaces differ: %v", diff)
	}
}

func TestReadDenseLinksInternalNode(t *testing.T) {
	f := newFile()
	var objs [][]byte
	for _, name := range []string{"a", "b", "c", "d"} {
		objs = append(objs, hardLink(name, dataset(f, []uint64{4}, nil)))
	}
	heap, ids := denseHeap(f, objs)

	left := btreeNode(f, "BTLF", records(ids[:1]))
	right := btreeNode(f, "BTLF", records(ids[2:]))
	// One record, then child pointers: address and a one byte count.
	body := records(ids[1:2])
	body = append(le.AppendUint64(body, left), 1)
	body = append(le.AppendUint64(body, right), 2)
	internal := btreeNode(f, "BTIN", body)
	index := bthd(f, 1, internal, 1, 4)
	root := f.put(ohdr(msgs(msgLinkInfo, linkInfo(heap, index))))

	spaces, err := Read(bytes.NewReader(f.finish(root)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var got []string
	for p := range spaces {
		got = append(got, p)
	}
	sort.Strings(got)
	if diff := pretty.Diff(got, []string{"/a", "/b", "/c", "/d"}); len(diff) > 0 {
		t.Errorf("paths: got %v", got)
	}
}

func TestReadEmptyDenseGroup(t *testing.T) {
	f := newFile()
	undef := ^uint64(0)
	root := f.put(ohdr(msgs(msgLinkInfo, linkInfo(undef, undef))))
	spaces, err := Read(bytes.NewReader(f.finish(root)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(spaces) != 0 {
		t.Errorf("expected no datasets, got %v", spaces)
	}
}

func TestBTree2Layout(t *testing.T) {
	// Link name index nodes as netCDF-4 writes them.
	bt := &btree2{r: &reader{offsetSize: 8, lengthSize: 8}, nodeSize: 512, recSize: 11}
	bt.layout(2)
	if bt.nrecSize != 1 {
		t.Errorf("record count width: got %d, want 1", bt.nrecSize)
	}
	if diff := pretty.Diff(bt.totalSize, []int{0, 2, 2}); len(diff) > 0 {
		t.Errorf("total widths: got %v", bt.totalSize)
	}
}

func TestFractalHeapIndirect(t *testing.T) {
	f := newFile()
	var children []uint64
	for i := 0; i < 4; i++ {
		children = append(children, f.put(make([]byte, 512)))
	}
	ib := []byte("FHIB")
	ib = append(ib, 0)
	ib = le.AppendUint64(ib, 0)
	ib = le.AppendUint32(ib, 0)
	for _, c := range children[:3] {
		ib = le.AppendUint64(ib, c)
	}
	ib = le.AppendUint64(ib, ^uint64(0))
	rootBlock := f.put(ib)
	copy(f.b[children[2]+20:], "found")

	fh := &fractalHeap{
		r:           &reader{r: bytes.NewReader(f.b), offsetSize: 8, lengthSize: 8},
		idLen:       7,
		width:       2,
		startBlock:  512,
		maxDirect:   1024,
		offsetBytes: 4,
		lengthBytes: 2,
		root:        rootBlock,
		rootRows:    2,
	}
	// Rows 0 and 1 both hold blocks of the starting size.
	id := []byte{0}
	id = le.AppendUint32(id, 1024+20)
	id = le.AppendUint16(id, 5)
	obj, err := fh.object(id)
	if err != nil {
		t.Fatalf("object failed: %v", err)
	}
	if string(obj) != "found" {
		t.Errorf("object: got %q", obj)
	}

	unallocated := []byte{0}
	unallocated = le.AppendUint32(unallocated, 1536+4)
	unallocated = le.AppendUint16(unallocated, 1)
	if _, err := fh.object(unallocated); !errors.Is(err, ErrCorrupt) {
		t.Errorf("unallocated block: expected ErrCorrupt, got %v", err)
	}

	outside := []byte{0}
	outside = le.AppendUint32(outside, 4096)
	outside = le.AppendUint16(outside, 1)
	if _, err := fh.object(outside); !errors.Is(err, ErrCorrupt) {
		t.Errorf("outside the heap: expected ErrCorrupt, got %v", err)
	}

	tiny, err := fh.object([]byte{0x22, 'a', 'b', 'c', 0, 0, 0})
	if err != nil {
		t.Fatalf("tiny object failed: %v", err)
	}
	if string(tiny) != "abc" {
		t.Errorf("tiny object: got %q", tiny)
	}

	if _, err := fh.object([]byte{0x10, 0, 0, 0, 0, 0, 0}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("huge object: expected ErrUnsupported, got %v", err)
	}
}
