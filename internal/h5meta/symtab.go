package h5meta

import "fmt"

// maxDepth bounds B-tree recursion in corrupt files.
const maxDepth = 64

// symbolTable lists the entries of a group indexed by a v1 B-tree whose
// names live in a local heap.
func (w *walker) symbolTable(btreeAddr, heapAddr uint64) ([]link, error) {
	names, err := w.localHeap(heapAddr)
	if err != nil {
		return nil, err
	}
	var links []link
	err = w.groupNode(btreeAddr, names, 0, &links)
	return links, err
}

/*
Local heap:
0       4     Signature ("HEAP")
4       1     Version (0)
5       3     Reserved
8       L     Data segment size
8+L     L     Offset to head of free list
8+2L    O     Address of data segment
*/
func (w *walker) localHeap(addr uint64) ([]byte, error) {
	hr := w.r.at(addr)
	if err := hr.signature("HEAP"); err != nil {
		return nil, err
	}
	if v, err := hr.uint8(); err != nil {
		return nil, err
	} else if v != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrUnsupported, v)
	}
	hr.skip(3)
	size, err := hr.length()
	if err != nil {
		return nil, err
	}
	if _, err := hr.length(); err != nil {
		return nil, err
	}
	data, err := hr.offset()
	if err != nil {
		return nil, err
	}
	if size > maxField {
		return nil, fmt.Errorf("%w: local heap of %d bytes", ErrCorrupt, size)
	}
	return w.r.at(data).bytes(int(size))
}

// heapString returns the NUL-terminated string at off.
func heapString(heap []byte, off uint64) string {
	if off >= uint64(len(heap)) {
		return ""
	}
	end := off
	for end < uint64(len(heap)) && heap[end] != 0 {
		end++
	}
	return string(heap[off:end])
}

/*
Group B-tree node (version 1, type 0):
0       4     Signature ("TREE")
4       1     Node type (0 for groups)
5       1     Node level (0 for leaves)
6       2     Entries used
8       O     Left sibling address
8+O     O     Right sibling address
then          Key 0, child 0, key 1, child 1, ... key N, each key L bytes

Leaf children are symbol table nodes; others are B-tree nodes.
*/
func (w *walker) groupNode(addr uint64, names []byte, depth int, links *[]link) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: group B-tree deeper than %d", ErrCorrupt, maxDepth)
	}
	nr := w.r.at(addr)
	if err := nr.signature("TREE"); err != nil {
		return err
	}
	head, err := nr.bytes(4)
	if err != nil {
		return err
	}
	if head[0] != 0 {
		return fmt.Errorf("%w: B-tree node type %d in a group", ErrCorrupt, head[0])
	}
	level := head[1]
	entries := int(decodeUint(head[2:4]))
	nr.skip(2 * w.r.offsetSize)

	children := make([]uint64, 0, entries)
	for i := 0; i < entries; i++ {
		if _, err := nr.length(); err != nil {
			return err
		}
		child, err := nr.offset()
		if err != nil {
			return err
		}
		children = append(children, child)
	}
	for _, child := range children {
		if level > 0 {
			err = w.groupNode(child, names, depth+1, links)
		} else {
			err = w.symbolNode(child, names, links)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

/*
Symbol table node:
0       4     Signature ("SNOD")
4       1     Version (1)
5       1     Reserved
6       2     Number of symbols
8       var   Symbol table entries

Symbol table entry:
0       O     Link name offset in the local heap
O       O     Object header address
2O      4     Cache type (2 for soft links)
2O+4    4     Reserved
2O+8    16    Scratch pad
*/
func (w *walker) symbolNode(addr uint64, names []byte, links *[]link) error {
	nr := w.r.at(addr)
	if err := nr.signature("SNOD"); err != nil {
		return err
	}
	head, err := nr.bytes(4)
	if err != nil {
		return err
	}
	if head[0] != 1 {
		return fmt.Errorf("%w: symbol table node version %d", ErrUnsupported, head[0])
	}
	n := int(decodeUint(head[2:4]))
	for i := 0; i < n; i++ {
		nameOff, err := nr.offset()
		if err != nil {
			return err
		}
		obj, err := nr.offset()
		if err != nil {
			return err
		}
		cache, err := nr.uint32()
		if err != nil {
			return err
		}
		nr.skip(4 + 16)
		*links = append(*links, link{
			name: heapString(names, nameOff),
			addr: obj,
			hard: cache != 2,
		})
	}
	return nil
}
