package model

import (
	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/hyperslab"
)

// Attributes maps attribute names to values. Values are DAP-representable
// scalars, slices of them, or nested Attributes.
type Attributes map[string]interface{}

// Node is one element of a dataset tree.
type Node interface {
	Name() string
	Attributes() Attributes
}

// BaseType is a leaf variable. Its data is a lazy view into the open file.
type BaseType struct {
	name       string
	attrs      Attributes
	Data       *data.View
	Dimensions []string
}

// NewBaseType creates a leaf. dims may be nil when the axes are unnamed.
func NewBaseType(name string, view *data.View, dims []string, attrs Attributes) *BaseType {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &BaseType{name: name, attrs: attrs, Data: view, Dimensions: dims}
}

func (b *BaseType) Name() string           { return b.name }
func (b *BaseType) Attributes() Attributes { return b.attrs }

// Shape returns the shape of the leaf's view.
func (b *BaseType) Shape() []int {
	if b.Data == nil {
		return nil
	}
	return b.Data.Shape()
}

// Dtype returns the element type of the leaf's view.
func (b *BaseType) Dtype() data.Dtype {
	if b.Data == nil {
		return data.Invalid
	}
	return b.Data.Dtype()
}

// Slice returns a copy of b whose view is narrowed by keys.
func (b *BaseType) Slice(keys ...hyperslab.Key) (*BaseType, error) {
	view, err := b.Data.Slice(keys...)
	if err != nil {
		return nil, err
	}
	return &BaseType{name: b.name, attrs: b.attrs, Data: view, Dimensions: b.Dimensions}, nil
}

// StructureType is an ordered container of nodes, such as a file group.
type StructureType struct {
	name  string
	attrs Attributes
	Container
}

// NewStructureType creates an empty structure.
func NewStructureType(name string, attrs Attributes) *StructureType {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &StructureType{name: name, attrs: attrs}
}

func (s *StructureType) Name() string           { return s.name }
func (s *StructureType) Attributes() Attributes { return s.attrs }

// GridType is a data array together with one coordinate map per named axis.
// The first child is the array; the rest are maps in axis order.
type GridType struct {
	StructureType
}

// NewGridType creates an empty grid.
func NewGridType(name string, attrs Attributes) *GridType {
	return &GridType{StructureType: *NewStructureType(name, attrs)}
}

// Array returns the grid's data array, or nil for an empty grid.
func (g *GridType) Array() *BaseType {
	children := g.Children()
	if len(children) == 0 {
		return nil
	}
	b, _ := children[0].(*BaseType)
	return b
}

// Maps returns the grid's coordinate maps.
func (g *GridType) Maps() []*BaseType {
	children := g.Children()
	if len(children) < 2 {
		return nil
	}
	maps := make([]*BaseType, 0, len(children)-1)
	for _, c := range children[1:] {
		if b, ok := c.(*BaseType); ok {
			maps = append(maps, b)
		}
	}
	return maps
}

// DatasetType is the root of a tree.
type DatasetType struct {
	StructureType
}

// NewDatasetType creates an empty dataset.
func NewDatasetType(name string, attrs Attributes) *DatasetType {
	return &DatasetType{StructureType: *NewStructureType(name, attrs)}
}

// Container holds child nodes in insertion order.
type Container struct {
	keys     []string
	children map[string]Node
}

// Add appends n, or replaces a child with the same name in place.
func (c *Container) Add(n Node) {
	if c.children == nil {
		c.children = make(map[string]Node)
	}
	if _, ok := c.children[n.Name()]; !ok {
		c.keys = append(c.keys, n.Name())
	}
	c.children[n.Name()] = n
}

// Get returns the child called name.
func (c *Container) Get(name string) (Node, bool) {
	n, ok := c.children[name]
	return n, ok
}

// Keys returns child names in insertion order.
func (c *Container) Keys() []string {
	return append([]string{}, c.keys...)
}

// Children returns child nodes in insertion order.
func (c *Container) Children() []Node {
	out := make([]Node, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.children[k]
	}
	return out
}

// Len returns the number of children.
func (c *Container) Len() int { return len(c.keys) }

// Parent is implemented by nodes that hold children.
type Parent interface {
	Node
	Get(name string) (Node, bool)
	Keys() []string
	Children() []Node
}
