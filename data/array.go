package data

import (
	"fmt"
	"math"
	"math/bits"
	"reflect"

	"github.com/robert-malhotra/go-dap/hyperslab"
)

// Array is an n-dimensional block of values stored flat in row-major order.
// Values is always a slice of one of the types listed by Dtype.
type Array struct {
	shape  []int
	values interface{}
}

// NewArray wraps a flat slice. The product of shape must equal len(values);
// an empty shape makes a scalar holding one value.
func NewArray(values interface{}, shape ...int) (*Array, error) {
	d := DtypeOf(values)
	rv := reflect.ValueOf(values)
	if d == Invalid || rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, values)
	}
	if n := product(shape); n != rv.Len() {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, rv.Len(), shape)
	}
	return &Array{shape: append([]int{}, shape...), values: values}, nil
}

// Empty returns an array of the given type and shape with no elements. At
// least one extent must be zero.
func Empty(d Dtype, shape ...int) *Array {
	return &Array{shape: append([]int{}, shape...), values: d.makeSlice(product(shape))}
}

// Shape returns a copy of the per-axis extents.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.shape) }

// Size returns the total number of elements.
func (a *Array) Size() int { return product(a.shape) }

// Len returns the extent of the first axis, or 1 for a scalar.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 1
	}
	return a.shape[0]
}

// Dtype returns the element type.
func (a *Array) Dtype() Dtype { return DtypeOf(a.values) }

// Values returns the flat backing slice.
func (a *Array) Values() interface{} { return a.values }

// Value returns the i-th element in row-major order.
func (a *Array) Value(i int) interface{} {
	return reflect.ValueOf(a.values).Index(i).Interface()
}

// Reshape returns an array sharing a's values under a new shape of the same size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if product(shape) != a.Size() {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShape, a.shape, shape)
	}
	return &Array{shape: append([]int{}, shape...), values: a.values}, nil
}

// Subset copies out the elements selected by one range per axis.
func (a *Array) Subset(sel []hyperslab.Range) (*Array, error) {
	if len(sel) != len(a.shape) {
		return nil, fmt.Errorf("%w: %d ranges for rank %d", ErrDimensionMismatch, len(sel), len(a.shape))
	}
	shape := make([]int, len(sel))
	for i, r := range sel {
		shape[i] = r.Len()
		if shape[i] == 0 {
			continue
		}
		lo, hi := r.Bounds()
		if lo < 0 || hi >= a.shape[i] {
			return nil, fmt.Errorf("%w: range %v outside axis %d of length %d", hyperslab.ErrIndexRange, r, i, a.shape[i])
		}
	}
	idx := gatherIndex(a.shape, sel)
	return &Array{shape: shape, values: take(a.values, idx)}, nil
}

// Byteswap returns a copy of a with the bytes of every element reversed.
func (a *Array) Byteswap() (*Array, error) {
	var out interface{}
	switch v := a.values.(type) {
	case []int8:
		out = mapValues(v, func(x int8) int8 { return x })
	case []uint8:
		out = mapValues(v, func(x uint8) uint8 { return x })
	case []int16:
		out = mapValues(v, func(x int16) int16 { return int16(bits.ReverseBytes16(uint16(x))) })
	case []uint16:
		out = mapValues(v, bits.ReverseBytes16)
	case []int32:
		out = mapValues(v, func(x int32) int32 { return int32(bits.ReverseBytes32(uint32(x))) })
	case []uint32:
		out = mapValues(v, bits.ReverseBytes32)
	case []int64:
		out = mapValues(v, func(x int64) int64 { return int64(bits.ReverseBytes64(uint64(x))) })
	case []uint64:
		out = mapValues(v, bits.ReverseBytes64)
	case []float32:
		out = mapValues(v, func(x float32) float32 {
			return math.Float32frombits(bits.ReverseBytes32(math.Float32bits(x)))
		})
	case []float64:
		out = mapValues(v, func(x float64) float64 {
			return math.Float64frombits(bits.ReverseBytes64(math.Float64bits(x)))
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, a.Dtype())
	}
	return &Array{shape: a.Shape(), values: out}, nil
}

// FromNested flattens nested slices such as [][]float32, as returned by
// array-file readers, into an Array. A non-slice value becomes a scalar.
func FromNested(v interface{}) (*Array, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}

	var shape []int
	t := rv.Type()
	cur := rv
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		n := 0
		if cur.IsValid() {
			n = cur.Len()
		}
		shape = append(shape, n)
		if n > 0 {
			cur = cur.Index(0)
		} else {
			cur = reflect.Value{}
		}
		t = t.Elem()
	}
	d := kindDtype(t.Kind())
	if d == Invalid {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	if len(shape) == 1 && rv.Kind() == reflect.Slice && rv.Type().Elem() == d.GoType() {
		return &Array{shape: shape, values: v}, nil
	}

	flat := reflect.MakeSlice(reflect.SliceOf(d.GoType()), 0, product(shape))
	var walk func(v reflect.Value, depth int) error
	walk = func(v reflect.Value, depth int) error {
		if depth == len(shape) {
			flat = reflect.Append(flat, v.Convert(d.GoType()))
			return nil
		}
		if v.Len() != shape[depth] {
			return fmt.Errorf("%w: ragged axis %d (%d != %d)", ErrShape, depth, v.Len(), shape[depth])
		}
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, err
	}
	return &Array{shape: shape, values: flat.Interface()}, nil
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// gatherIndex returns the flat offsets of the elements sel picks out of an
// array of the given shape, in row-major order.
func gatherIndex(shape []int, sel []hyperslab.Range) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	counts := make([]int, len(sel))
	total := 1
	for i, r := range sel {
		counts[i] = r.Len()
		total *= counts[i]
	}
	idx := make([]int, 0, total)
	if total == 0 {
		return idx
	}

	pos := make([]int, len(sel))
	for {
		off := 0
		for d, r := range sel {
			off += r.At(pos[d]) * strides[d]
		}
		idx = append(idx, off)

		d := len(pos) - 1
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < counts[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return idx
		}
	}
}

func takeSlice[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}

func take(values interface{}, idx []int) interface{} {
	switch v := values.(type) {
	case []int8:
		return takeSlice(v, idx)
	case []uint8:
		return takeSlice(v, idx)
	case []int16:
		return takeSlice(v, idx)
	case []uint16:
		return takeSlice(v, idx)
	case []int32:
		return takeSlice(v, idx)
	case []uint32:
		return takeSlice(v, idx)
	case []int64:
		return takeSlice(v, idx)
	case []uint64:
		return takeSlice(v, idx)
	case []float32:
		return takeSlice(v, idx)
	case []float64:
		return takeSlice(v, idx)
	case []string:
		return takeSlice(v, idx)
	default:
		rv := reflect.ValueOf(values)
		out := reflect.MakeSlice(rv.Type(), len(idx), len(idx))
		for i, j := range idx {
			out.Index(i).Set(rv.Index(j))
		}
		return out.Interface()
	}
}

func mapValues[T any](src []T, f func(T) T) []T {
	out := make([]T, len(src))
	for i, x := range src {
		out[i] = f(x)
	}
	return out
}
