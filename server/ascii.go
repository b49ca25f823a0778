package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/go-dap/data"
)

// writeASCII writes each leaf's dotted path followed by one line per item
// of its iterator.
func writeASCII(w io.Writer, leaves []leaf) error {
	for _, l := range leaves {
		if _, err := fmt.Fprintln(w, l.path); err != nil {
			return err
		}
		it := l.node.Data.Iter()
		for {
			a, err := it.Next()
			if err == data.Done {
				break
			}
			if err != nil {
				return fmt.Errorf("%s: %w", l.path, err)
			}
			if _, err := fmt.Fprintln(w, formatArray(a)); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatArray renders a as nested bracketed lists, or a bare value for a
// scalar.
func formatArray(a *data.Array) string {
	var b strings.Builder
	shape := a.Shape()
	pos := 0
	var rec func(axis int)
	rec = func(axis int) {
		if axis == len(shape) {
			b.WriteString(formatValue(a.Value(pos)))
			pos++
			return
		}
		b.WriteByte('[')
		for i := 0; i < shape[axis]; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			rec(axis + 1)
		}
		b.WriteByte(']')
	}
	rec(0)
	return b.String()
}
