package handler

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/model"
)

// Build converts the tree below root into a dataset named name.
//
// Global attributes are placed under NC_GLOBAL. If the file has exactly one
// unlimited dimension its name is recorded under
// DODS_EXTRA.Unlimited_Dimension; more than one fails with
// ErrUnsupportedSchema.
func Build(name string, root Group, opts ...Option) (*model.DatasetType, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return buildWith(name, root, o)
}

func buildWith(name string, root Group, o *options) (*model.DatasetType, error) {
	b := &builder{log: o.log, viewOpts: o.viewOptions()}
	return b.build(name, root)
}

type builder struct {
	log      logrus.FieldLogger
	viewOpts []data.Option
}

// scope resolves coordinate variables in a group and its ancestors.
type scope struct {
	vars   map[string]Variable
	parent *scope
}

func (s *scope) lookup(name string) (Variable, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

type adder interface {
	Add(model.Node)
}

func (b *builder) build(name string, root Group) (*model.DatasetType, error) {
	unlimited := FindUnlimited(root, b.log)
	if len(unlimited) > 1 {
		return nil, fmt.Errorf("%w: %d unlimited dimensions (%s)",
			ErrUnsupportedSchema, len(unlimited), strings.Join(unlimited, ", "))
	}

	attrs := model.Attributes{
		"NC_GLOBAL": readAttributes("NC_GLOBAL", root, b.log),
	}
	if len(unlimited) == 1 {
		attrs["DODS_EXTRA"] = model.Attributes{"Unlimited_Dimension": unlimited[0]}
	}

	ds := model.NewDatasetType(name, attrs)
	if err := b.addGroup(ds, root, nil); err != nil {
		return nil, err
	}
	return ds, nil
}

func (b *builder) addGroup(parent adder, g Group, up *scope) error {
	vars, err := g.Variables()
	if err != nil {
		return fmt.Errorf("listing variables of %s: %w", g.Name(), err)
	}

	sc := &scope{vars: make(map[string]Variable, len(vars)), parent: up}
	for _, v := range vars {
		sc.vars[v.Name()] = v
	}

	for _, v := range vars {
		node, err := b.variableNode(v, sc)
		if err != nil {
			return err
		}
		parent.Add(node)
	}

	groups, err := g.Groups()
	if err != nil {
		return fmt.Errorf("listing groups of %s: %w", g.Name(), err)
	}
	for _, sub := range groups {
		st := model.NewStructureType(sub.Name(), readAttributes(sub.Name(), sub, b.log))
		if err := b.addGroup(st, sub, sc); err != nil {
			return err
		}
		parent.Add(st)
	}
	return nil
}

// variableNode classifies v as a scalar, a grid or a plain array.
func (b *builder) variableNode(v Variable, sc *scope) (model.Node, error) {
	b.log.WithField("variable", v.Name()).Debug("adding variable")

	view, err := data.NewView(v, nil, b.viewOpts...)
	if err != nil {
		return nil, err
	}
	attrs := readAttributes(v.Name(), v, b.log)
	if view.Rank() == 0 {
		return model.NewBaseType(v.Name(), view, nil, attrs), nil
	}

	dims := v.Dimensions()
	if len(dims) != view.Rank() {
		dims = nil
	}

	coords := b.coordinates(v, dims, sc)
	if len(coords) == 0 {
		return model.NewBaseType(v.Name(), view, dims, attrs), nil
	}

	grid := model.NewGridType(v.Name(), attrs)
	grid.Add(model.NewBaseType(v.Name(), view, dims, attrs))
	for _, dim := range dims {
		c, ok := coords[dim]
		if !ok {
			continue
		}
		cview, err := data.NewView(c, nil, b.viewOpts...)
		if err != nil {
			return nil, err
		}
		grid.Add(model.NewBaseType(dim, cview, []string{dim}, readAttributes(c.Name(), c, b.log)))
	}
	return grid, nil
}

// coordinates returns the rank-1 variables named after v's dimensions. A
// coordinate variable is never a grid of itself.
func (b *builder) coordinates(v Variable, dims []string, sc *scope) map[string]Variable {
	if len(dims) == 1 && dims[0] == v.Name() {
		return nil
	}
	coords := make(map[string]Variable)
	for _, dim := range dims {
		if dim == "" {
			continue
		}
		c, ok := sc.lookup(dim)
		if !ok || len(c.Shape()) != 1 {
			continue
		}
		coords[dim] = c
	}
	return coords
}
