package h5meta

import (
	"fmt"
	"path"
)

type walker struct {
	r      *reader
	spaces Spaces
	seen   map[uint64]bool
}

// walk records the dataspace of the object at addr and descends into its
// links when it is a group.
func (w *walker) walk(addr uint64, p string) error {
	if w.seen[addr] {
		return nil
	}
	w.seen[addr] = true

	msgs, err := readHeader(w.r, addr)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	var links []link
	for _, m := range msgs {
		switch m.typ {
		case msgDataspace:
			sp, err := parseDataspace(m.data, w.r.lengthSize)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			w.spaces[p] = sp

		case msgLink:
			l, err := parseLink(m.data, w.r.offsetSize)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			links = append(links, l)

		case msgLinkInfo:
			heap, names, err := parseLinkInfo(m.data, w.r.offsetSize)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			if w.r.undefined(heap) || w.r.undefined(names) {
				continue
			}
			dense, err := w.denseLinks(heap, names)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			links = append(links, dense...)

		case msgSymbolTable:
			btree, heap, err := parseSymbolTable(m.data, w.r.offsetSize)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			entries, err := w.symbolTable(btree, heap)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			links = append(links, entries...)
		}
	}

	for _, l := range links {
		if !l.hard || l.name == "" {
			continue
		}
		if err := w.walk(l.addr, path.Join(p, l.name)); err != nil {
			return err
		}
	}
	return nil
}
