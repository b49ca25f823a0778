package data

import (
	"errors"
	"fmt"
	"testing"

	"github.com/robert-malhotra/go-dap/hyperslab"
)

// memVar is an in-memory Variable whose values are their own flat index.
type memVar struct {
	name      string
	shape     []int
	unlimited bool
	reads     int
}

func newMemVar(name string, shape ...int) *memVar {
	return &memVar{name: name, shape: shape}
}

func (m *memVar) Name() string { return m.name }
func (m *memVar) Shape() []int { return append([]int{}, m.shape...) }
func (m *memVar) Dtype() Dtype { return Float64 }

func (m *memVar) values() []float64 {
	vals := make([]float64, product(m.shape))
	for i := range vals {
		vals[i] = float64(i)
	}
	return vals
}

func (m *memVar) ReadRows(begin, end int) (*Array, error) {
	m.reads++
	vals := m.values()
	if len(m.shape) == 0 {
		return NewArray(vals)
	}
	if begin < 0 || end > m.shape[0] || begin > end {
		return nil, fmt.Errorf("rows [%d, %d) out of range", begin, end)
	}
	row := product(m.shape[1:])
	shape := append([]int{end - begin}, m.shape[1:]...)
	return NewArray(vals[begin*row:end*row], shape...)
}

func (m *memVar) MaxShape() ([]int, error) {
	max := m.Shape()
	if m.unlimited && len(max) > 0 {
		max[0] = Unlimited
	}
	return max, nil
}

// sizeVar only knows its element count.
type sizeVar struct{ n int }

func (s sizeVar) Name() string { return "sized" }
func (s sizeVar) Shape() []int { return nil }
func (s sizeVar) Dtype() Dtype { return Int32 }
func (s sizeVar) Size() int    { return s.n }

func (s sizeVar) ReadRows(begin, end int) (*Array, error) {
	vals := make([]int32, end-begin)
	for i := range vals {
		vals[i] = int32(begin + i)
	}
	return NewArray(vals, end-begin)
}

func mustView(t *testing.T, v Variable, opts ...Option) *View {
	t.Helper()
	w, err := NewView(v, nil, opts...)
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}
	return w
}

func mustSlice(t *testing.T, w *View, spec string) *View {
	t.Helper()
	keys, err := hyperslab.ParseKeys(spec)
	if err != nil {
		t.Fatalf("ParseKeys(%q) failed: %v", spec, err)
	}
	s, err := w.Slice(keys...)
	if err != nil {
		t.Fatalf("Slice(%q) failed: %v", spec, err)
	}
	return s
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestViewShape(t *testing.T) {
	v := newMemVar("tasmax", 10, 10, 10)
	w := mustView(t, v)

	if got := w.Shape(); !equalShape(got, []int{10, 10, 10}) {
		t.Errorf("unsliced shape: got %v", got)
	}
	if w.Rank() != 3 {
		t.Errorf("expected rank 3, got %d", w.Rank())
	}

	tests := []struct {
		spec string
		want []int
	}{
		{"5:10,:,:", []int{5, 10, 10}},
		{"0:2,3:4,5:6", []int{2, 1, 1}},
		{":,1:2,3:4", []int{10, 1, 1}},
		{"::3,::-1,-2:", []int{4, 10, 2}},
		{"20:,:,:", []int{0, 10, 10}},
		{"4", []int{1, 10, 10}},
		{"-1,2,:", []int{1, 1, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			s := mustSlice(t, w, tt.spec)
			if got := s.Shape(); !equalShape(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewSliceOfSlice(t *testing.T) {
	w := mustView(t, newMemVar("tasmax", 10, 10, 10))
	s := mustSlice(t, mustSlice(t, w, "5:10,:,:"), "1:2,:,:")
	if got := s.Shape(); !equalShape(got, []int{1, 10, 10}) {
		t.Fatalf("got %v, want [1 10 10]", got)
	}

	a, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	// Row 6 of the variable starts at flat index 600.
	if got := a.Value(0).(float64); got != 600 {
		t.Errorf("first value: got %v, want 600", got)
	}

	// The original view is unchanged.
	if got := w.Shape(); !equalShape(got, []int{10, 10, 10}) {
		t.Errorf("original shape changed to %v", got)
	}
}

func TestViewReadValues(t *testing.T) {
	v := newMemVar("v", 4, 5, 6)
	w := mustSlice(t, mustView(t, v), "3:0:-2,1:4,::2")
	a, err := w.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := a.Shape(); !equalShape(got, []int{2, 3, 3}) {
		t.Fatalf("shape: got %v", got)
	}

	var want []float64
	for _, i := range []int{3, 1} {
		for _, j := range []int{1, 2, 3} {
			for _, k := range []int{0, 2, 4} {
				want = append(want, float64(i*30+j*6+k))
			}
		}
	}
	got := a.Values().([]float64)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestViewIteration(t *testing.T) {
	v := newMemVar("tasmax", 10, 10, 10)
	w := mustView(t, v)

	tests := []struct {
		spec      string
		wantCount int
		wantShape []int
	}{
		{"5:10,:,:", 5, []int{10, 10}},
		{":,1:2,3:4", 10, []int{1, 1}},
		{"0:2,3:4,5:6", 2, []int{1, 1}},
		{"::4,:,:", 3, []int{10, 10}},
		{"10:,:,:", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			items, err := mustSlice(t, w, tt.spec).Iter().Collect()
			if err != nil {
				t.Fatalf("iteration failed: %v", err)
			}
			if len(items) != tt.wantCount {
				t.Fatalf("expected %d items, got %d", tt.wantCount, len(items))
			}
			for i, item := range items {
				if !equalShape(item.Shape(), tt.wantShape) {
					t.Errorf("item %d: shape %v, want %v", i, item.Shape(), tt.wantShape)
				}
			}
		})
	}
}

func TestViewIterationValues(t *testing.T) {
	w := mustSlice(t, mustView(t, newMemVar("v", 6, 4)), "1:6:2,2:")
	items, err := w.Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{6, 7}, {14, 15}, {22, 23}}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		got := item.Values().([]float64)
		if got[0] != want[i][0] || got[1] != want[i][1] {
			t.Errorf("item %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestViewIterationRestart(t *testing.T) {
	w := mustSlice(t, mustView(t, newMemVar("v", 10, 3)), "2:8:3,:")
	it := w.Iter()

	first, err := it.Collect()
	if err != nil {
		t.Fatal(err)
	}
	// Collect stopped at Done, so the iterator has reset itself.
	second, err := it.Collect()
	if err != nil {
		t.Fatal(err)
	}
	third, err := w.Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != 2 || len(second) != 2 || len(third) != 2 {
		t.Fatalf("lengths differ: %d %d %d", len(first), len(second), len(third))
	}
	for i := range first {
		a := first[i].Values().([]float64)
		b := second[i].Values().([]float64)
		c := third[i].Values().([]float64)
		for j := range a {
			if a[j] != b[j] || a[j] != c[j] {
				t.Errorf("item %d differs between passes: %v %v %v", i, a, b, c)
			}
		}
	}
}

func TestViewIterationOneDimensional(t *testing.T) {
	fixed := newMemVar("lat", 10)
	items, err := mustView(t, fixed).Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 10 {
		t.Fatalf("fixed: expected 10 items, got %d", len(items))
	}
	if items[3].Rank() != 0 || items[3].Value(0).(float64) != 3 {
		t.Errorf("fixed: item 3 is %v with shape %v", items[3].Values(), items[3].Shape())
	}

	record := newMemVar("time", 10)
	record.unlimited = true
	w := mustSlice(t, mustView(t, record), "2:7")
	items, err = w.Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("record: expected 1 item, got %d", len(items))
	}
	if got := items[0].Shape(); !equalShape(got, []int{5}) {
		t.Errorf("record: item shape %v, want [5]", got)
	}
	if record.reads != 1 {
		t.Errorf("record: expected a single bulk read, got %d", record.reads)
	}
}

func TestViewIterationScalar(t *testing.T) {
	w := mustView(t, newMemVar("scalar"))
	if w.Rank() != 0 || w.Len() != 1 {
		t.Fatalf("rank %d len %d", w.Rank(), w.Len())
	}
	items, err := w.Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Value(0).(float64) != 0 {
		t.Errorf("unexpected items %v", items)
	}
}

func TestViewLen(t *testing.T) {
	w := mustView(t, newMemVar("tasmax", 10, 10, 10))
	for _, spec := range []string{"5:10,:,:", "0:1,:,:", "3", "::-1,2:3,4:5"} {
		s := mustSlice(t, w, spec)
		if s.Len() != 10 {
			t.Errorf("%s: len %d, want 10", spec, s.Len())
		}
	}
}

func TestViewSizerFallback(t *testing.T) {
	w := mustView(t, sizeVar{n: 7})
	if got := w.Shape(); !equalShape(got, []int{7}) {
		t.Fatalf("shape: got %v, want [7]", got)
	}
	if w.Dtype() != Int32 {
		t.Errorf("dtype: got %v", w.Dtype())
	}
	items, err := mustSlice(t, w, "::3").Iter().Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 || items[2].Value(0).(int32) != 6 {
		t.Errorf("unexpected items %v", items)
	}
}

func TestViewErrors(t *testing.T) {
	v := newMemVar("tasmax", 10, 10, 10)

	if _, err := NewView(v, []hyperslab.Axis{hyperslab.All()}); !errors.Is(err, ErrInvalidSliceCount) {
		t.Errorf("expected ErrInvalidSliceCount, got %v", err)
	}

	w := mustView(t, v)
	tests := []struct {
		name string
		keys []hyperslab.Key
		want error
	}{
		{"too few", []hyperslab.Key{hyperslab.All(), hyperslab.All()}, ErrDimensionMismatch},
		{"too many", []hyperslab.Key{hyperslab.All(), hyperslab.All(), hyperslab.All(), hyperslab.All()}, ErrDimensionMismatch},
		{"single axis on rank 3", []hyperslab.Key{hyperslab.Span(0, 1)}, ErrDimensionMismatch},
		{"zero step", []hyperslab.Key{hyperslab.Strided(0, 1, 0), hyperslab.All(), hyperslab.All()}, hyperslab.ErrZeroStep},
		{"index out of range", []hyperslab.Key{hyperslab.Index(10)}, hyperslab.ErrIndexRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Slice(tt.keys...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestViewStrictSlicing(t *testing.T) {
	w := mustView(t, newMemVar("tasmax", 10, 10, 10), WithStrictSlicing())

	s := mustSlice(t, w, "5:10,:,:")
	if got := s.Shape(); !equalShape(got, []int{5, 10, 10}) {
		t.Errorf("got %v", got)
	}
	_, err := s.Slice(hyperslab.Span(1, 2), hyperslab.All(), hyperslab.All())
	if !errors.Is(err, ErrUnsupportedComposition) {
		t.Errorf("expected ErrUnsupportedComposition, got %v", err)
	}
}

func TestViewStrictSlicingSameStep(t *testing.T) {
	w := mustView(t, newMemVar("v", 20), WithStrictSlicing())

	s, err := w.Slice(hyperslab.Strided(0, 20, 2))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if _, err := s.Slice(hyperslab.Strided(0, 10, 2)); !errors.Is(err, ErrUnsupportedComposition) {
		t.Errorf("same step: expected ErrUnsupportedComposition, got %v", err)
	}
	if _, err := s.Slice(hyperslab.All()); !errors.Is(err, ErrUnsupportedComposition) {
		t.Errorf("full axis: expected ErrUnsupportedComposition, got %v", err)
	}
}

func TestViewByteswap(t *testing.T) {
	w := mustSlice(t, mustView(t, newMemVar("v", 4)), "1:3")
	a, err := w.Byteswap()
	if err != nil {
		t.Fatalf("Byteswap failed: %v", err)
	}
	back, err := a.Byteswap()
	if err != nil {
		t.Fatal(err)
	}
	got := back.Values().([]float64)
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("double swap: got %v, want [1 2]", got)
	}
	if a.Values().([]float64)[0] == 1 {
		t.Error("swap left value unchanged")
	}
}
