package data

import (
	"fmt"

	"github.com/robert-malhotra/go-dap/hyperslab"
)

// Iterator walks the major axis of a View.
//
// Each call to Next yields the next position along the first axis with the
// remaining selections applied, so a (10, 10, 10) view yields ten (10, 10)
// arrays. A rank-1 view over a record variable yields its whole selection as
// a single array. When the positions run out Next returns Done and the
// iterator starts over.
type Iterator struct {
	view  *View
	major hyperslab.Range
	minor []hyperslab.Range
	pos   int
}

// Reset rewinds the iterator to the start of the major selection.
func (it *Iterator) Reset() {
	it.pos = 0
	if it.view.Rank() == 0 {
		it.major = hyperslab.Full(1)
		it.minor = nil
		return
	}
	sel := it.view.ranges()
	it.major = sel[0]
	it.minor = sel[1:]
}

// Next returns the next item, or Done when there are no more.
func (it *Iterator) Next() (*Array, error) {
	if it.pos >= it.major.Len() {
		it.Reset()
		return nil, Done
	}

	w := it.view
	switch {
	case w.Rank() == 0:
		a, err := w.v.ReadRows(0, 1)
		if err != nil {
			return nil, err
		}
		it.pos++
		return a, nil

	case w.Rank() == 1 && IsRecord(w.v):
		a, err := w.Read()
		if err != nil {
			return nil, err
		}
		it.pos = it.major.Len()
		return a, nil
	}

	row := it.major.At(it.pos)
	slab, err := w.v.ReadRows(row, row+1)
	if err != nil {
		return nil, fmt.Errorf("reading %q row %d: %w", w.Name(), row, err)
	}
	sel := append([]hyperslab.Range{hyperslab.Full(1)}, it.minor...)
	sub, err := slab.Subset(sel)
	if err != nil {
		return nil, err
	}
	item, err := sub.Reshape(sub.Shape()[1:]...)
	if err != nil {
		return nil, err
	}
	it.pos++
	return item, nil
}

// Collect drains it and returns every item.
func (it *Iterator) Collect() ([]*Array, error) {
	var items []*Array
	for {
		a, err := it.Next()
		if err == Done {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
}
