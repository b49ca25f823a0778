// Package data provides lazy, sliceable views over array variables held in
// open files.
//
// A [Variable] is anything that can report its shape and element type and
// read a run of rows along its first axis. A [View] wraps a Variable with one
// [hyperslab.Axis] per axis. Slicing a view composes the new selection onto
// the old one axis by axis without touching the file:
//
//	v, _ := data.NewView(tasmax, nil)          // shape (10, 10, 10)
//	s, _ := v.Slice(hyperslab.Span(5, 10), hyperslab.All(), hyperslab.All())
//	s.Shape()                                  // [5 10 10]
//	t, _ := s.Slice(hyperslab.Span(1, 2), hyperslab.All(), hyperslab.All())
//	t.Shape()                                  // [1 10 10]
//
// Iteration runs along the first axis and is restartable:
//
//	it := s.Iter()
//	for {
//		row, err := it.Next()
//		if err == data.Done {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		// row has shape (10, 10)
//	}
//
// Len reports the variable's declared first-axis extent, not the view's.
// Callers that want the sliced extent use Shape.
//
// Views read through the file that owns the Variable. They are not safe for
// concurrent use and become invalid once that file is closed.
package data
