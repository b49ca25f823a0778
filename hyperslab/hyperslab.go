package hyperslab

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrZeroStep = errors.New("slice step cannot be zero")
	ErrSyntax   = errors.New("invalid slice syntax")
)

// Bound is an optional slice position. The zero value is unset.
type Bound struct {
	v  int
	ok bool
}

// At returns a Bound set to v.
func At(v int) Bound {
	return Bound{v: v, ok: true}
}

// None is the unset Bound.
var None Bound

// IsSet reports whether the bound carries a value.
func (b Bound) IsSet() bool { return b.ok }

// Value returns the bound value and whether it is set.
func (b Bound) Value() (int, bool) { return b.v, b.ok }

func (b Bound) String() string {
	if !b.ok {
		return ""
	}
	return strconv.Itoa(b.v)
}

// Axis selects a strided range along one axis.
type Axis struct {
	Start Bound
	Stop  Bound
	Step  Bound
}

// All returns the identity selection.
func All() Axis { return Axis{} }

// Span returns [start:stop].
func Span(start, stop int) Axis {
	return Axis{Start: At(start), Stop: At(stop)}
}

// Strided returns [start:stop:step].
func Strided(start, stop, step int) Axis {
	return Axis{Start: At(start), Stop: At(stop), Step: At(step)}
}

// IsAll reports whether a selects the whole axis without resolving it.
func (a Axis) IsAll() bool {
	return !a.Start.ok && !a.Stop.ok && !a.Step.ok
}

// Validate reports ErrZeroStep for a step of zero.
func (a Axis) Validate() error {
	if a.Step.ok && a.Step.v == 0 {
		return ErrZeroStep
	}
	return nil
}

func (a Axis) String() string {
	var sb strings.Builder
	sb.WriteString(a.Start.String())
	sb.WriteByte(':')
	sb.WriteString(a.Stop.String())
	if a.Step.ok {
		sb.WriteByte(':')
		sb.WriteString(a.Step.String())
	}
	return sb.String()
}

// Resolve clamps a against an axis of length n. Unset and negative bounds are
// resolved the same way Python's slice.indices does.
func (a Axis) Resolve(n int) (Range, error) {
	if err := a.Validate(); err != nil {
		return Range{}, err
	}
	step := 1
	if a.Step.ok {
		step = a.Step.v
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(b Bound, def int) int {
		if !b.ok {
			return def
		}
		v := b.v
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	r := Range{Step: step}
	if step > 0 {
		r.Start = clamp(a.Start, lower)
		r.Stop = clamp(a.Stop, upper)
	} else {
		r.Start = clamp(a.Start, upper)
		r.Stop = clamp(a.Stop, lower)
	}
	return r, nil
}

// Len returns the number of positions a selects on an axis of length n.
func (a Axis) Len(n int) (int, error) {
	if a.IsAll() {
		return n, nil
	}
	r, err := a.Resolve(n)
	if err != nil {
		return 0, err
	}
	return r.Len(), nil
}

// Range is a resolved selection: the positions Start, Start+Step, ... up to
// but excluding Stop. Step is never zero.
type Range struct {
	Start, Stop, Step int
}

// Full returns the range covering [0, n).
func Full(n int) Range {
	return Range{Start: 0, Stop: n, Step: 1}
}

// Len returns the number of positions in r.
func (r Range) Len() int {
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop-r.Start-1)/r.Step + 1
	}
	if r.Start <= r.Stop {
		return 0
	}
	return (r.Start-r.Stop-1)/(-r.Step) + 1
}

// At returns the i-th position of r.
func (r Range) At(i int) int {
	return r.Start + i*r.Step
}

// Bounds returns the smallest and largest positions in r. It must not be
// called on an empty range.
func (r Range) Bounds() (lo, hi int) {
	first, last := r.Start, r.At(r.Len()-1)
	if first > last {
		return last, first
	}
	return first, last
}

// Axis converts r back to an explicit selection.
func (r Range) Axis() Axis {
	a := Axis{Start: At(r.Start), Stop: At(r.Stop), Step: At(r.Step)}
	if r.Step < 0 && r.Stop < 0 {
		// A stop of -1 would be read as "last element".
		a.Stop = None
	}
	return a
}
