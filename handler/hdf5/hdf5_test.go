package hdf5

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/hyperslab"
	"github.com/robert-malhotra/go-dap/internal/format"
	"github.com/robert-malhotra/go-dap/internal/h5test"
	"github.com/robert-malhotra/go-dap/model"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return p
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.h5") },
		},
		{
			name:    "classic netcdf",
			path:    func(t *testing.T) string { return writeFile(t, "classic.h5", []byte("CDF\x01\x00\x00\x00\x00")) },
			wantErr: ErrNotHDF5,
		},
		{
			name:    "text file",
			path:    func(t *testing.T) string { return writeFile(t, "notes.h5", []byte("not an array file")) },
			wantErr: format.ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			p := tt.path(t)
			h, err := Open(p, handler.WithLogger(log))
			if err == nil {
				h.Close()
				t.Fatal("expected error, got nil")
			}
			var oe *handler.OpenError
			if !errors.As(err, &oe) {
				t.Fatalf("expected *OpenError, got %T: %v", err, err)
			}
			if oe.Path != p {
				t.Errorf("Path: got %q, want %q", oe.Path, p)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func openClimate(t *testing.T) *handler.Handler {
	t.Helper()
	log, _ := test.NewNullLogger()
	h, err := Open(h5test.WriteFile(t, "climate.h5", h5test.Climate()), handler.WithLogger(log))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func leaf(t *testing.T, h *handler.Handler, path string) *model.BaseType {
	t.Helper()
	n, err := model.Lookup(h.Dataset(), path)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", path, err)
	}
	b, ok := n.(*model.BaseType)
	if !ok {
		t.Fatalf("%s: got %T, want *model.BaseType", path, n)
	}
	return b
}

func TestDatasetAttributes(t *testing.T) {
	h := openClimate(t)
	want := model.Attributes{
		"NC_GLOBAL":  model.Attributes{"title": "hdf5 fixture"},
		"DODS_EXTRA": model.Attributes{"Unlimited_Dimension": "time"},
	}
	if diff := pretty.Diff(h.Dataset().Attributes(), want); len(diff) > 0 {
		t.Errorf("attributes differ:\n%v", diff)
	}
}

func TestDatasetTree(t *testing.T) {
	h := openClimate(t)
	ds := h.Dataset()

	n, ok := ds.Get("tas")
	if !ok {
		t.Fatal("tas not found")
	}
	grid, ok := n.(*model.GridType)
	if !ok {
		t.Fatalf("tas: got %T, want *model.GridType", n)
	}
	var maps []string
	for _, m := range grid.Maps() {
		maps = append(maps, m.Name())
	}
	if diff := pretty.Diff(maps, []string{"time", "lat"}); len(diff) > 0 {
		t.Errorf("tas maps differ: %v", diff)
	}
	want := model.Attributes{"units": "K", "scale_factor": 1.5}
	if diff := pretty.Diff(grid.Array().Attributes(), want); len(diff) > 0 {
		t.Errorf("tas attributes differ: %v", diff)
	}

	for _, name := range []string{"time", "lat"} {
		n, ok := ds.Get(name)
		if !ok {
			t.Fatalf("%s not found", name)
		}
		if _, ok := n.(*model.BaseType); !ok {
			t.Errorf("%s: got %T, want *model.BaseType", name, n)
		}
	}

	n, ok = ds.Get("forecast")
	if !ok {
		t.Fatal("forecast not found")
	}
	st, ok := n.(*model.StructureType)
	if !ok {
		t.Fatalf("forecast: got %T, want *model.StructureType", n)
	}
	if diff := pretty.Diff(st.Attributes(), model.Attributes{"comment": "nested"}); len(diff) > 0 {
		t.Errorf("forecast attributes differ: %v", diff)
	}
	if diff := pretty.Diff(st.Keys(), []string{"depth"}); len(diff) > 0 {
		t.Errorf("forecast members: got %v", st.Keys())
	}
	if got := fmt.Sprint(leaf(t, h, "forecast.depth").Shape()); got != "[2]" {
		t.Errorf("depth shape: got %s", got)
	}
}

func TestMaxShape(t *testing.T) {
	h := openClimate(t)
	tests := []struct {
		path string
		want []int
	}{
		{"tas.tas", []int{data.Unlimited, 3}},
		{"time", []int{data.Unlimited}},
		{"lat", []int{3}},
		{"forecast.depth", []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v := leaf(t, h, tt.path).Data.Variable()
			ms, ok := v.(data.MaxShaper)
			if !ok {
				t.Fatalf("%T does not report a maximum shape", v)
			}
			max, err := ms.MaxShape()
			if err != nil {
				t.Fatalf("MaxShape failed: %v", err)
			}
			if diff := pretty.Diff(max, tt.want); len(diff) > 0 {
				t.Errorf("got %v, want %v", max, tt.want)
			}
		})
	}
}

func TestRecordRead(t *testing.T) {
	h := openClimate(t)

	// The record axis is read in one piece.
	times, err := leaf(t, h, "time").Data.Iter().Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(times) != 1 {
		t.Fatalf("time: got %d items, want 1", len(times))
	}
	if diff := pretty.Diff(times[0].Values(), []float64{0, 6, 12, 18, 24}); len(diff) > 0 {
		t.Errorf("time: got %v", times[0].Values())
	}

	tas := leaf(t, h, "tas.tas").Data
	a, err := tas.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := []float32{0, 1, 2, 10, 11, 12, 20, 21, 22, 30, 31, 32, 40, 41, 42}
	if diff := pretty.Diff(a.Values(), want); len(diff) > 0 {
		t.Errorf("tas: got %v", a.Values())
	}

	sliced, err := tas.Slice(hyperslab.Span(3, 5), hyperslab.Span(1, 3))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	items, err := sliced.Iter().Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var got []interface{}
	for _, it := range items {
		for i := 0; i < it.Size(); i++ {
			got = append(got, it.Value(i))
		}
	}
	wantSlice := []interface{}{float32(31), float32(32), float32(41), float32(42)}
	if diff := pretty.Diff(got, wantSlice); len(diff) > 0 {
		t.Errorf("tas[3:5][1:3]: got %v", got)
	}
}

func TestReadAfterClose(t *testing.T) {
	log, _ := test.NewNullLogger()
	h, err := Open(h5test.WriteFile(t, "closed.h5", h5test.Climate()), handler.WithLogger(log))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	view := leaf(t, h, "lat").Data
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := view.Read(); !errors.Is(err, handler.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

// TestOpenTestdata opens every HDF5 file under testdata and iterates every
// leaf once.
func TestOpenTestdata(t *testing.T) {
	files, _ := filepath.Glob(filepath.Join("testdata", "*.h5"))
	if len(files) == 0 {
		t.Skip("no HDF5 files in testdata")
	}

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			log, _ := test.NewNullLogger()
			h, err := Open(f, handler.WithLogger(log))
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer h.Close()

			if _, ok := h.Dataset().Attributes()["NC_GLOBAL"]; !ok {
				t.Error("expected NC_GLOBAL attributes")
			}
			err = model.Walk(h.Dataset(), func(p string, n model.Node) error {
				leaf, ok := n.(*model.BaseType)
				if !ok {
					return nil
				}
				it := leaf.Data.Iter()
				if _, err := it.Next(); err != nil && err != data.Done {
					t.Errorf("%s: Next failed: %v", p, err)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Walk failed: %v", err)
			}
		})
	}
}
