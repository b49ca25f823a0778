package data

import "errors"

// Common errors
var (
	ErrInvalidSliceCount      = errors.New("slice count does not match variable rank")
	ErrDimensionMismatch      = errors.New("key count does not match view rank")
	ErrUnsupportedComposition = errors.New("cannot re-slice a sliced view")
	ErrNotNumeric             = errors.New("element type is not numeric")
	ErrUnsupportedType        = errors.New("unsupported element type")
	ErrShape                  = errors.New("values do not match shape")
)

// Done is returned by Iterator.Next when there are no more items. It is the
// end of a normal iteration, not a failure.
var Done = errors.New("no more items in iterator")
