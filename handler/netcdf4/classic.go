package netcdf4

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ctessum/cdf"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/handler"
)

// classicFile reads netCDF classic and 64-bit offset files. The file is a
// single flat group whose header carries the dimension table.
type classicFile struct {
	mu      sync.RWMutex
	f       *os.File
	cf      *cdf.File
	numRecs int
	closed  bool
}

func openClassic(path string) (*classicFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading netCDF header: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	n := int(cf.Header.NumRecs(fi.Size()))
	if n < 0 {
		n = 0
	}
	return &classicFile{f: f, cf: cf, numRecs: n}, nil
}

func (c *classicFile) Root() handler.Group { return c }

func (c *classicFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}

func (c *classicFile) check() error {
	if c.closed {
		return handler.ErrClosed
	}
	return nil
}

func (c *classicFile) Name() string { return "/" }

func (c *classicFile) Attributes() ([]handler.Attribute, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.attributes(""), nil
}

func (c *classicFile) attributes(v string) []handler.Attribute {
	h := c.cf.Header
	names := h.Attributes(v)
	attrs := make([]handler.Attribute, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, handler.Attribute{Name: name, Value: h.GetAttribute(v, name)})
	}
	return attrs
}

func (c *classicFile) Variables() ([]handler.Variable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.check(); err != nil {
		return nil, err
	}

	names := c.cf.Header.Variables()
	vars := make([]handler.Variable, 0, len(names))
	for _, name := range names {
		v, err := c.variable(name)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func (c *classicFile) Groups() ([]handler.Group, error) { return nil, nil }

// DimensionTable lists the header's dimensions. The record dimension is
// stored with length zero and reported with the current record count.
func (c *classicFile) DimensionTable() ([]handler.Dimension, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.check(); err != nil {
		return nil, err
	}

	h := c.cf.Header
	names := h.Dimensions("")
	lengths := h.Lengths("")
	if len(names) != len(lengths) {
		return nil, fmt.Errorf("dimension table has %d names and %d lengths", len(names), len(lengths))
	}
	dims := make([]handler.Dimension, len(names))
	for i, name := range names {
		dims[i] = handler.Dimension{Name: name, Len: lengths[i]}
		if lengths[i] == 0 {
			dims[i].Len = c.numRecs
			dims[i].Unlimited = true
		}
	}
	return dims, nil
}

func (c *classicFile) variable(name string) (*classicVar, error) {
	h := c.cf.Header
	v := &classicVar{
		file:   c,
		name:   name,
		dims:   h.Dimensions(name),
		raw:    append([]int(nil), h.Lengths(name)...),
		record: h.IsRecordVariable(name),
	}
	// Lengths returns the header's own slice, whose zero record length
	// marks the variable as a record variable for cdf's readers.
	if v.record && len(v.raw) > 0 {
		v.raw[0] = c.numRecs
	}

	zero := h.ZeroValue(name, 1)
	v.dtype = data.DtypeOf(zero)
	if _, ok := zero.([]byte); ok {
		// Classic files have no unsigned bytes, so []byte is CHAR.
		v.dtype = data.String
		v.strlen = 1
		n := len(v.raw)
		if n > 1 || (n == 1 && !v.record) {
			v.strlen = v.raw[n-1]
			v.collapsed = true
		}
	}
	if v.dtype == data.Invalid {
		return nil, fmt.Errorf("variable %s: unsupported type %T", name, zero)
	}

	v.shape = v.raw
	if v.collapsed {
		v.shape = v.raw[:len(v.raw)-1]
		if len(v.dims) == len(v.raw) {
			v.dims = v.dims[:len(v.dims)-1]
		}
	}
	return v, nil
}

// classicVar is a variable of a classic file. CHAR variables are read as
// strings, one per position of their innermost axis.
type classicVar struct {
	file      *classicFile
	name      string
	dims      []string
	raw       []int
	shape     []int
	dtype     data.Dtype
	record    bool
	collapsed bool
	strlen    int
}

func (v *classicVar) Name() string         { return v.name }
func (v *classicVar) Shape() []int         { return append([]int{}, v.shape...) }
func (v *classicVar) Dtype() data.Dtype    { return v.dtype }
func (v *classicVar) Dimensions() []string { return append([]string{}, v.dims...) }

func (v *classicVar) Attributes() ([]handler.Attribute, error) {
	v.file.mu.RLock()
	defer v.file.mu.RUnlock()
	if err := v.file.check(); err != nil {
		return nil, err
	}
	return v.file.attributes(v.name), nil
}

// MaxShape reports the record axis as unlimited.
func (v *classicVar) MaxShape() ([]int, error) {
	max := v.Shape()
	if v.record && len(max) > 0 {
		max[0] = data.Unlimited
	}
	return max, nil
}

func (v *classicVar) ReadRows(begin, end int) (*data.Array, error) {
	v.file.mu.RLock()
	defer v.file.mu.RUnlock()
	if err := v.file.check(); err != nil {
		return nil, err
	}

	var start, stop []int
	count := 1
	for _, n := range v.raw {
		count *= n
	}
	if len(v.shape) > 0 {
		if begin >= end {
			return data.Empty(v.dtype, append([]int{0}, v.shape[1:]...)...), nil
		}
		start = make([]int, len(v.raw))
		stop = make([]int, len(v.raw))
		start[0], stop[0] = begin, end
		count = end - begin
		for _, n := range v.raw[1:] {
			count *= n
		}
	}

	r := v.file.cf.Reader(v.name, start, stop)
	buf := r.Zero(count)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", v.name, err)
	}

	shape := v.Shape()
	if len(shape) > 0 {
		shape[0] = end - begin
	}
	if v.dtype == data.String {
		return data.NewArray(splitStrings(buf.([]byte), v.strlen), shape...)
	}
	return data.NewArray(buf, shape...)
}

// splitStrings cuts b into strings of n bytes, dropping trailing NULs.
func splitStrings(b []byte, n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, len(b)/n)
	for i := range out {
		out[i] = strings.TrimRight(string(b[i*n:(i+1)*n]), "\x00")
	}
	return out
}
