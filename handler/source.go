package handler

import "github.com/robert-malhotra/go-dap/data"

// File is an open array file as exposed by a backend.
type File interface {
	Root() Group
	Close() error
}

// Group is one level of a file's tree. Flat formats have a single root group.
type Group interface {
	Name() string
	Attributes() ([]Attribute, error)
	Variables() ([]Variable, error)
	Groups() ([]Group, error)
}

// Variable is an array variable inside a group.
type Variable interface {
	data.Variable

	// Dimensions names each axis. It may be shorter than the rank when the
	// file does not name its axes.
	Dimensions() []string

	Attributes() ([]Attribute, error)
}

// Attribute is a native attribute as read by a backend. Err is set when the
// value could not be decoded.
type Attribute struct {
	Name  string
	Value interface{}
	Err   error
}

// Dimension is an entry in a group's dimension table.
type Dimension struct {
	Name      string
	Len       int
	Unlimited bool
}

// DimensionLister is implemented by groups that carry a dimension table,
// such as the header of a classic netCDF file.
type DimensionLister interface {
	DimensionTable() ([]Dimension, error)
}
