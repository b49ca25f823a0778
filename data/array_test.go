package data

import (
	"errors"
	"testing"

	"github.com/robert-malhotra/go-dap/hyperslab"
)

func TestNewArray(t *testing.T) {
	a, err := NewArray([]int16{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("NewArray failed: %v", err)
	}
	if a.Dtype() != Int16 || a.Size() != 6 || a.Len() != 2 || a.Rank() != 2 {
		t.Errorf("unexpected array: dtype %v size %d len %d rank %d", a.Dtype(), a.Size(), a.Len(), a.Rank())
	}

	if _, err := NewArray([]int16{1, 2, 3}, 2, 2); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
	if _, err := NewArray([]bool{true}, 1); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFromNested(t *testing.T) {
	tests := []struct {
		name      string
		in        interface{}
		wantShape []int
		wantDtype Dtype
		wantFirst interface{}
	}{
		{"flat", []float32{1, 2, 3}, []int{3}, Float32, float32(1)},
		{"nested", [][]int32{{1, 2, 3}, {4, 5, 6}}, []int{2, 3}, Int32, int32(1)},
		{"deep", [][][]uint8{{{7}, {8}}}, []int{1, 2, 1}, Uint8, uint8(7)},
		{"strings", []string{"a", "b"}, []int{2}, String, "a"},
		{"scalar", float64(2.5), nil, Float64, float64(2.5)},
		{"scalar string", "units", nil, String, "units"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := FromNested(tt.in)
			if err != nil {
				t.Fatalf("FromNested failed: %v", err)
			}
			if !equalShape(a.Shape(), tt.wantShape) {
				t.Errorf("shape: got %v, want %v", a.Shape(), tt.wantShape)
			}
			if a.Dtype() != tt.wantDtype {
				t.Errorf("dtype: got %v, want %v", a.Dtype(), tt.wantDtype)
			}
			if got := a.Value(0); got != tt.wantFirst {
				t.Errorf("first value: got %v, want %v", got, tt.wantFirst)
			}
		})
	}

	if _, err := FromNested([][]float64{{1, 2}, {3}}); !errors.Is(err, ErrShape) {
		t.Errorf("ragged input: expected ErrShape, got %v", err)
	}
	if _, err := FromNested([]bool{true}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("bool input: expected ErrUnsupportedType, got %v", err)
	}
}

func TestArraySubset(t *testing.T) {
	a, _ := NewArray([]string{"a", "b", "c", "d", "e", "f"}, 2, 3)
	sub, err := a.Subset([]hyperslab.Range{{Start: 1, Stop: 2, Step: 1}, {Start: 2, Stop: -1, Step: -2}})
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	got := sub.Values().([]string)
	if len(got) != 2 || got[0] != "f" || got[1] != "d" {
		t.Errorf("got %v, want [f d]", got)
	}

	_, err = a.Subset([]hyperslab.Range{hyperslab.Full(3), hyperslab.Full(3)})
	if !errors.Is(err, hyperslab.ErrIndexRange) {
		t.Errorf("expected ErrIndexRange, got %v", err)
	}
	if _, err := a.Subset([]hyperslab.Range{hyperslab.Full(2)}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestArrayByteswap(t *testing.T) {
	a, _ := NewArray([]uint16{0x0102, 0xA0B0}, 2)
	s, err := a.Byteswap()
	if err != nil {
		t.Fatalf("Byteswap failed: %v", err)
	}
	got := s.Values().([]uint16)
	if got[0] != 0x0201 || got[1] != 0xB0A0 {
		t.Errorf("got %#x", got)
	}

	str, _ := NewArray([]string{"x"}, 1)
	if _, err := str.Byteswap(); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
}

func TestParseDtype(t *testing.T) {
	tests := []struct {
		name string
		want Dtype
	}{
		{"float32", Float32},
		{"int64", Int64},
		{"string", String},
		{"ubyte", Uint8},
		{"compound", Invalid},
		{"invalid", Invalid},
	}
	for _, tt := range tests {
		if got := ParseDtype(tt.name); got != tt.want {
			t.Errorf("ParseDtype(%q): got %v, want %v", tt.name, got, tt.want)
		}
	}
}
