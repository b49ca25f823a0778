package handler

import (
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/data"
)

// Option configures how a handler builds its dataset.
type Option func(*options)

type options struct {
	log    logrus.FieldLogger
	strict bool
	name   string
}

func defaultOptions() *options {
	return &options{
		log: logrus.StandardLogger(),
	}
}

func (o *options) viewOptions() []data.Option {
	return []data.Option{data.WithStrict(o.strict)}
}

// WithLogger sets the logger used for warnings while building.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStrictSlicing makes every leaf view refuse re-slicing once sliced.
func WithStrictSlicing(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithName overrides the dataset name, which defaults to the escaped file
// base name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
