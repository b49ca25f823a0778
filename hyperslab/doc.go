// Package hyperslab describes per-axis selections over n-dimensional arrays.
//
// An [Axis] is a strided, half-open range over one axis written as a
// (start, stop, step) triple. Each part is a [Bound] that may be left unset,
// in which case it takes its default from the axis extent once the selection
// is resolved. Negative starts and stops count back from the end of the axis.
// The zero value of Axis selects the whole axis.
//
// # Resolving
//
// [Axis.Resolve] turns an Axis into a concrete [Range] for a given extent:
//
//	r, err := hyperslab.Span(5, 10).Resolve(10)
//	// r.Start == 5, r.Stop == 10, r.Step == 1, r.Len() == 5
//
// # Composing
//
// [Compose] folds a selection made relative to an already selected axis back
// into a single Axis over the original extent. Strides multiply and offsets
// translate, so composing [5:10] with [1:2] yields [6:7]:
//
//	c, err := hyperslab.Compose(hyperslab.Span(5, 10), hyperslab.Span(1, 2), 10)
//
// # Keys
//
// A [Key] is what callers pass to select along one axis: either an Axis or
// an [Index] naming a single position. [Parse] reads the textual slice form
// ("5:10", "::2", "-1", ":") used by command line tools and tests.
package hyperslab
