package data

// Option configures a View.
type Option func(*viewOptions)

type viewOptions struct {
	strict bool
}

// WithStrictSlicing makes a view refuse to be re-sliced once any of its axes
// is sliced. Slicing such a view fails with ErrUnsupportedComposition.
func WithStrictSlicing() Option {
	return func(o *viewOptions) {
		o.strict = true
	}
}

// WithStrict sets strict slicing on or off.
func WithStrict(strict bool) Option {
	return func(o *viewOptions) {
		o.strict = strict
	}
}
