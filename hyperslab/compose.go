package hyperslab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIndexRange is returned when a point index falls outside its axis.
var ErrIndexRange = errors.New("index out of range")

// Compose returns the single selection equivalent to applying outer to an
// axis of length n and then inner to the result.
//
// Identity selections are returned unchanged so that an axis that was never
// sliced keeps tracking the extent of the underlying variable.
func Compose(outer, inner Axis, n int) (Axis, error) {
	if err := outer.Validate(); err != nil {
		return Axis{}, err
	}
	if err := inner.Validate(); err != nil {
		return Axis{}, err
	}
	if inner.IsAll() {
		return outer, nil
	}
	if outer.IsAll() {
		return inner, nil
	}

	ro, _ := outer.Resolve(n)
	ri, _ := inner.Resolve(ro.Len())
	k := ri.Len()
	if k == 0 {
		return Span(0, 0), nil
	}

	step := ro.Step * ri.Step
	start := ro.At(ri.Start)
	last := ro.At(ri.At(k - 1))
	stop := last + 1
	if step < 0 {
		stop = last - 1
	}
	return Range{Start: start, Stop: stop, Step: step}.Axis(), nil
}

// Key selects along one axis: an Axis or an Index.
type Key interface {
	isKey()
}

// Index selects a single position. Negative values count from the end.
type Index int

func (Index) isKey() {}
func (Axis) isKey()  {}

// ToAxis converts k to an Axis over an axis of length n. An Index becomes a
// unit-length, stride-1 selection.
func ToAxis(k Key, n int) (Axis, error) {
	switch k := k.(type) {
	case Axis:
		return k, k.Validate()
	case Index:
		i := int(k)
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return Axis{}, fmt.Errorf("%w: %d with length %d", ErrIndexRange, int(k), n)
		}
		return Strided(i, i+1, 1), nil
	default:
		return Axis{}, fmt.Errorf("unsupported key type %T", k)
	}
}

// Parse reads one key in Python slice notation: "3", "-1", ":", "5:10",
// "::2" or "1:9:3".
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrSyntax)
	}
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		return Index(i), nil
	}
	if len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	bounds := make([]Bound, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		bounds[i] = At(v)
	}
	a := Axis{Start: bounds[0], Stop: bounds[1], Step: bounds[2]}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseKeys reads a comma separated list of keys, e.g. "5:10,:,3".
func ParseKeys(s string) ([]Key, error) {
	fields := strings.Split(s, ",")
	keys := make([]Key, 0, len(fields))
	for _, f := range fields {
		k, err := Parse(f)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
