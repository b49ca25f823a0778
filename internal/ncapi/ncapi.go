package ncapi

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/internal/h5meta"
)

// ErrUnsupportedVariable is returned for variables whose element type has no
// array representation, such as compound or enum types.
var ErrUnsupportedVariable = errors.New("unsupported variable type")

// File adapts an open api.Group to handler.File. Reads from every group and
// variable are serialized on a single lock because the underlying readers
// seek a shared file handle.
type File struct {
	mu     sync.Mutex
	top    api.Group
	opened []api.Group
	log    logrus.FieldLogger
	spaces h5meta.Spaces
	root   *group
	// Groups and variables are described once and kept by path. A nil
	// variable was skipped.
	groups map[string]*group
	vars   map[string]*variable
	closed bool
}

// Option configures a File.
type Option func(*File)

// WithSpaces supplies the dataspaces of an HDF5 file, read from its own
// metadata. They give variables their full shape without reading data and
// mark the axes that can grow.
func WithSpaces(sp h5meta.Spaces) Option {
	return func(f *File) { f.spaces = sp }
}

// ReadSpaces reads the dataspaces of the HDF5 file at name. A file whose
// metadata cannot be walked is logged and gets no spaces, so shapes come
// from reading data and no axis is reported as growable.
func ReadSpaces(name string, log logrus.FieldLogger) Option {
	sp, err := h5meta.ReadFile(name)
	if err != nil {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithError(err).WithField("path", name).Warn("reading HDF5 dataspaces")
		return func(*File) {}
	}
	return WithSpaces(sp)
}

// Wrap takes ownership of g. Closing the returned File closes g and every
// subgroup opened through it.
func Wrap(g api.Group, log logrus.FieldLogger, opts ...Option) *File {
	if log == nil {
		log = logrus.StandardLogger()
	}
	f := &File{
		top:    g,
		log:    log,
		groups: make(map[string]*group),
		vars:   make(map[string]*variable),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.root = &group{file: f, g: g, name: "/", path: "/"}
	f.groups["/"] = f.root
	return f
}

// Root returns the top-level group.
func (f *File) Root() handler.Group {
	return f.root
}

// Close releases the file. It is safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for i := len(f.opened) - 1; i >= 0; i-- {
		f.opened[i].Close()
	}
	f.opened = nil
	f.top.Close()
	return nil
}

// do runs fn under the file lock, failing once the file is closed.
func (f *File) do(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return handler.ErrClosed
	}
	return fn()
}

type group struct {
	file *File
	g    api.Group
	name string
	path string
}

func (g *group) Name() string { return g.name }

func (g *group) Attributes() ([]handler.Attribute, error) {
	var attrs []handler.Attribute
	err := g.file.do(func() error {
		attrs = convertAttributes(g.g.Attributes())
		return nil
	})
	return attrs, err
}

func (g *group) Variables() ([]handler.Variable, error) {
	var names []string
	err := g.file.do(func() error {
		names = g.g.ListVariables()
		return nil
	})
	if err != nil {
		return nil, err
	}

	vars := make([]handler.Variable, 0, len(names))
	for _, name := range names {
		v, err := g.variable(name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			vars = append(vars, v)
		}
	}
	return vars, nil
}

// Groups returns the subgroups, opening each one the first time it is
// listed.
func (g *group) Groups() ([]handler.Group, error) {
	var groups []handler.Group
	err := g.file.do(func() error {
		for _, name := range g.g.ListSubgroups() {
			p := path.Join(g.path, name)
			if sub, ok := g.file.groups[p]; ok {
				groups = append(groups, sub)
				continue
			}
			sg, err := g.g.GetGroup(name)
			if err != nil {
				return fmt.Errorf("opening group %s: %w", p, err)
			}
			g.file.opened = append(g.file.opened, sg)
			sub := &group{file: g.file, g: sg, name: name, path: p}
			g.file.groups[p] = sub
			groups = append(groups, sub)
		}
		return nil
	})
	return groups, err
}

// DimensionTable lists the group's dimensions. Classic netCDF headers store
// the record dimension with length zero. In HDF5 files a dimension is
// unlimited when its dimension scale can grow.
func (g *group) DimensionTable() ([]handler.Dimension, error) {
	type dimensioner interface {
		ListDimensions() []string
		GetDimension(name string) (uint64, bool)
	}
	dl, ok := g.g.(dimensioner)
	if !ok {
		return nil, nil
	}
	_, classic := g.g.(*cdf.CDF)

	var dims []handler.Dimension
	err := g.file.do(func() error {
		for _, name := range dl.ListDimensions() {
			n, ok := dl.GetDimension(name)
			if !ok {
				continue
			}
			unlimited := classic && n == 0
			if sp, ok := g.file.spaces[path.Join(g.path, name)]; ok && sp.Growable(0) {
				unlimited = true
			}
			dims = append(dims, handler.Dimension{
				Name:      name,
				Len:       int(n),
				Unlimited: unlimited,
			})
		}
		return nil
	})
	return dims, err
}

// variable returns the named variable, describing it on first use. It
// returns nil for a variable that cannot be represented, after logging
// why once.
func (g *group) variable(name string) (*variable, error) {
	p := path.Join(g.path, name)
	var v *variable
	err := g.file.do(func() error {
		if cached, ok := g.file.vars[p]; ok {
			v = cached
			return nil
		}
		vg, err := g.g.GetVarGetter(name)
		if err == nil {
			v = &variable{file: g.file, vg: vg, name: name}
			err = v.describe(g, p)
		}
		if err != nil {
			g.file.log.WithError(err).WithFields(logrus.Fields{
				"group":    g.path,
				"variable": name,
			}).Warn("skipping variable")
			v = nil
		}
		g.file.vars[p] = v
		return nil
	})
	return v, err
}

type variable struct {
	file  *File
	vg    api.VarGetter
	name  string
	shape []int
	max   []int
	dtype data.Dtype
	dims  []string
}

// describe fills in the shape, type and dimensions. The getter reports
// only the length of the first axis, so the rest comes from the file's
// metadata when available and otherwise from reading the first row.
func (v *variable) describe(g *group, p string) error {
	n := int(v.vg.Len())
	v.dtype = data.ParseDtype(v.vg.GoType())
	v.dims = v.vg.Dimensions()

	if shape, ok := g.knownShape(p, v.dims, n); ok && v.dtype != data.Invalid && v.dtype != data.String {
		v.shape = shape
	} else if err := v.readShape(n); err != nil {
		return err
	}
	if v.dtype == data.Invalid {
		return fmt.Errorf("%w: %s has type %s", ErrUnsupportedVariable, v.name, v.vg.Type())
	}

	// Character arrays collapse their innermost axis into strings.
	if v.dtype == data.String && len(v.dims) > len(v.shape) {
		v.dims = v.dims[:len(v.shape)]
	}

	v.max = append([]int{}, v.shape...)
	for i := range v.max {
		if g.growable(p, v.dims, i) {
			v.max[i] = data.Unlimited
		}
	}
	return nil
}

// readShape learns the inner extents by reading the first row.
func (v *variable) readShape(n int) error {
	var first interface{}
	if n > 0 {
		var err error
		first, err = v.vg.GetSlice(0, 1)
		if err != nil {
			return fmt.Errorf("reading %s: %w", v.name, err)
		}
	}

	switch {
	case first == nil:
		v.shape = []int{0}
	case isScalar(first, n, len(v.dims)):
		v.shape = []int{}
	default:
		a, err := data.FromNested(first)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnsupportedVariable, v.name, err)
		}
		v.shape = append([]int{n}, a.Shape()[1:]...)
		if v.dtype == data.Invalid {
			v.dtype = a.Dtype()
		}
	}
	return nil
}

// knownShape returns the shape recorded in the file's metadata for a
// variable whose first axis has n rows. It fails when no metadata covers
// the variable or the metadata disagrees with the reader.
func (g *group) knownShape(p string, dims []string, n int) ([]int, bool) {
	if sp, ok := g.file.spaces[p]; ok {
		if len(sp.Dims) == 0 {
			return []int{}, n == 1
		}
		shape := make([]int, len(sp.Dims))
		for i, d := range sp.Dims {
			shape[i] = int(d)
		}
		return shape, shape[0] == n
	}

	c, ok := g.g.(*cdf.CDF)
	if !ok || len(dims) == 0 {
		return nil, false
	}
	shape := make([]int, len(dims))
	for i, name := range dims {
		l, ok := c.GetDimension(name)
		if !ok {
			return nil, false
		}
		shape[i] = int(l)
		if i == 0 && l == 0 {
			// The record dimension.
			shape[i] = n
		}
	}
	return shape, shape[0] == n
}

// growable reports whether axis i of the variable at p has no upper bound.
func (g *group) growable(p string, dims []string, i int) bool {
	if sp, ok := g.file.spaces[p]; ok {
		return sp.Growable(i)
	}
	c, ok := g.g.(*cdf.CDF)
	if !ok || i != 0 || len(dims) == 0 {
		return false
	}
	l, ok := c.GetDimension(dims[0])
	return ok && l == 0
}

// isScalar reports whether a first row came from a rank-0 variable.
// Readers return scalars either bare or as a one-element slice with no
// dimensions.
func isScalar(first interface{}, n, ndims int) bool {
	rv := reflect.ValueOf(first)
	if rv.Kind() != reflect.Slice {
		return true
	}
	return ndims == 0 && n == 1 && rv.Len() == 1 && rv.Index(0).Kind() != reflect.Slice
}

func (v *variable) Name() string         { return v.name }
func (v *variable) Shape() []int         { return append([]int{}, v.shape...) }
func (v *variable) Dtype() data.Dtype    { return v.dtype }
func (v *variable) Dimensions() []string { return append([]string{}, v.dims...) }

// MaxShape reports growable axes as data.Unlimited.
func (v *variable) MaxShape() ([]int, error) { return append([]int{}, v.max...), nil }

func (v *variable) Attributes() ([]handler.Attribute, error) {
	var attrs []handler.Attribute
	err := v.file.do(func() error {
		attrs = convertAttributes(v.vg.Attributes())
		return nil
	})
	return attrs, err
}

func (v *variable) ReadRows(begin, end int) (*data.Array, error) {
	if len(v.shape) == 0 {
		begin, end = 0, 1
	}
	if begin >= end {
		return data.Empty(v.dtype, append([]int{0}, v.shape[1:]...)...), nil
	}

	var raw interface{}
	err := v.file.do(func() error {
		var err error
		raw, err = v.vg.GetSlice(int64(begin), int64(end))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s[%d:%d]: %w", v.name, begin, end, err)
	}

	a, err := data.FromNested(raw)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", v.name, err)
	}
	if len(v.shape) == 0 {
		return a.Reshape()
	}
	return a.Reshape(append([]int{end - begin}, v.shape[1:]...)...)
}

func convertAttributes(m api.AttributeMap) []handler.Attribute {
	if m == nil {
		return nil
	}
	keys := m.Keys()
	attrs := make([]handler.Attribute, 0, len(keys))
	for _, k := range keys {
		val, ok := m.Get(k)
		a := handler.Attribute{Name: k, Value: val}
		if !ok {
			a.Err = fmt.Errorf("attribute %s: missing value", k)
		}
		attrs = append(attrs, a)
	}
	return attrs
}
