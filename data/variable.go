package data

// Variable is a read-only n-dimensional array held by an open file.
type Variable interface {
	Name() string

	// Shape returns the current per-axis extents. A scalar returns an
	// empty shape.
	Shape() []int

	Dtype() Dtype

	// ReadRows reads positions [begin, end) of the first axis and returns
	// an array of shape (end-begin, Shape()[1:]...). Scalars ignore the
	// bounds and return a rank-0 array.
	ReadRows(begin, end int) (*Array, error)
}

// Sizer is implemented by variables that only know their element count. A
// Variable returning a nil Shape and implementing Sizer is treated as rank 1.
type Sizer interface {
	Size() int
}

// Unlimited marks a growable axis in a maximum shape.
const Unlimited = -1

// MaxShaper is implemented by variables that know the maximum extent of
// each axis. Growable axes report Unlimited.
type MaxShaper interface {
	MaxShape() ([]int, error)
}

// IsRecord reports whether the first axis of v is growable.
func IsRecord(v Variable) bool {
	ms, ok := v.(MaxShaper)
	if !ok {
		return false
	}
	max, err := ms.MaxShape()
	if err != nil || len(max) == 0 {
		return false
	}
	return max[0] == Unlimited
}

// shapeOf returns the declared shape of v, applying the Sizer fallback.
func shapeOf(v Variable) []int {
	s := v.Shape()
	if s == nil {
		if sz, ok := v.(Sizer); ok {
			return []int{sz.Size()}
		}
	}
	return s
}
