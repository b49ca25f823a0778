package data

import (
	"fmt"

	"github.com/robert-malhotra/go-dap/hyperslab"
)

// View is a lazy, sliced window onto a Variable. It holds one axis selection
// per variable axis; the first is the major selection that drives iteration.
//
// Views never read data until Read, Byteswap or an Iterator asks for it.
// Slicing a View returns a new View and leaves the receiver unchanged.
type View struct {
	v      Variable
	slices []hyperslab.Axis
	opts   viewOptions
}

// NewView returns a view over v. A nil slices selects every axis in full;
// otherwise there must be exactly one selection per axis.
func NewView(v Variable, slices []hyperslab.Axis, opts ...Option) (*View, error) {
	w := &View{v: v}
	for _, opt := range opts {
		opt(&w.opts)
	}

	rank := len(shapeOf(v))
	if slices == nil {
		w.slices = make([]hyperslab.Axis, rank)
		return w, nil
	}
	if len(slices) != rank {
		return nil, fmt.Errorf("%w: %d slices for %q of rank %d", ErrInvalidSliceCount, len(slices), v.Name(), rank)
	}
	for _, s := range slices {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	w.slices = append([]hyperslab.Axis{}, slices...)
	return w, nil
}

// Variable returns the underlying variable.
func (w *View) Variable() Variable { return w.v }

// Name returns the variable name.
func (w *View) Name() string { return w.v.Name() }

// Slices returns a copy of the per-axis selections.
func (w *View) Slices() []hyperslab.Axis {
	return append([]hyperslab.Axis{}, w.slices...)
}

// Shape returns the extent of each axis after slicing.
func (w *View) Shape() []int {
	base := shapeOf(w.v)
	shape := make([]int, len(base))
	for i, n := range base {
		// Selections are validated on construction.
		shape[i], _ = w.slices[i].Len(n)
	}
	return shape
}

// Rank returns the number of axes.
func (w *View) Rank() int { return len(w.slices) }

// Len returns the declared extent of the variable's first axis, ignoring
// any selection on that axis. Scalars have length 1.
func (w *View) Len() int {
	base := shapeOf(w.v)
	if len(base) == 0 {
		return 1
	}
	return base[0]
}

// Dtype returns the variable's element type.
func (w *View) Dtype() Dtype { return w.v.Dtype() }

// IsSliced reports whether any axis carries a selection.
func (w *View) IsSliced() bool {
	for _, s := range w.slices {
		if !s.IsAll() {
			return true
		}
	}
	return false
}

// Slice returns a view of w narrowed by keys, which are relative to w's
// current shape. Keys may be a single Index (a point on the first axis), a
// single Axis when the view has rank 1, or exactly one key per axis.
func (w *View) Slice(keys ...hyperslab.Key) (*View, error) {
	shape := w.Shape()
	rank := len(shape)

	axes := make([]hyperslab.Axis, rank)
	switch {
	case len(keys) == rank:
		for i, k := range keys {
			a, err := hyperslab.ToAxis(k, shape[i])
			if err != nil {
				return nil, fmt.Errorf("axis %d: %w", i, err)
			}
			axes[i] = a
		}
	case len(keys) == 1 && rank > 1:
		idx, ok := keys[0].(hyperslab.Index)
		if !ok {
			return nil, fmt.Errorf("%w: one slice for rank %d", ErrDimensionMismatch, rank)
		}
		a, err := hyperslab.ToAxis(idx, shape[0])
		if err != nil {
			return nil, fmt.Errorf("axis 0: %w", err)
		}
		axes[0] = a
	default:
		return nil, fmt.Errorf("%w: %d keys for rank %d", ErrDimensionMismatch, len(keys), rank)
	}

	if w.opts.strict && w.IsSliced() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedComposition, w.Name())
	}

	base := shapeOf(w.v)
	composed := make([]hyperslab.Axis, rank)
	for i := range axes {
		c, err := hyperslab.Compose(w.slices[i], axes[i], base[i])
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		composed[i] = c
	}
	return &View{v: w.v, slices: composed, opts: w.opts}, nil
}

// ranges resolves every selection against the variable's current shape.
func (w *View) ranges() []hyperslab.Range {
	base := shapeOf(w.v)
	out := make([]hyperslab.Range, len(base))
	for i, n := range base {
		out[i], _ = w.slices[i].Resolve(n)
	}
	return out
}

// Read loads the whole selection into memory.
func (w *View) Read() (*Array, error) {
	if w.Rank() == 0 {
		return w.v.ReadRows(0, 1)
	}

	sel := w.ranges()
	major := sel[0]
	if major.Len() == 0 {
		return Empty(w.Dtype(), w.Shape()...), nil
	}

	lo, hi := major.Bounds()
	slab, err := w.v.ReadRows(lo, hi+1)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", w.Name(), err)
	}
	sel[0] = hyperslab.Range{Start: major.Start - lo, Stop: major.Stop - lo, Step: major.Step}
	return slab.Subset(sel)
}

// Byteswap reads the selection and returns it with every element's bytes
// reversed.
func (w *View) Byteswap() (*Array, error) {
	a, err := w.Read()
	if err != nil {
		return nil, err
	}
	return a.Byteswap()
}

// Iter returns a fresh iterator over the major axis.
func (w *View) Iter() *Iterator {
	it := &Iterator{view: w}
	it.Reset()
	return it
}

func (w *View) String() string {
	return fmt.Sprintf("%s%v", w.Name(), w.slices)
}
