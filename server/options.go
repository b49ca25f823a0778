package server

import "github.com/sirupsen/logrus"

// Option configures a Server.
type Option func(*options)

type options struct {
	log       logrus.FieldLogger
	cacheSize int
	strict    bool
	open      openFunc
}

func defaultOptions() *options {
	return &options{
		log:       logrus.StandardLogger(),
		cacheSize: 16,
		open:      Open,
	}
}

// WithLogger sets the request and dataset logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithCacheSize sets how many files stay open between requests. Zero keeps
// every file open.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.cacheSize = n
		}
	}
}

// WithStrictSlicing makes constraints on already-sliced views fail instead
// of composing.
func WithStrictSlicing(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func withOpener(open openFunc) Option {
	return func(o *options) {
		o.open = open
	}
}
