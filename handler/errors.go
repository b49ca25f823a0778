package handler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrClosed            = errors.New("file is closed")
	ErrUnsupportedSchema = errors.New("unsupported schema")
)

// OpenError reports a file that could not be opened or parsed.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ErrStopWalk can be returned from a WalkFunc to stop walking without an error.
var ErrStopWalk = &walkStopError{}

type walkStopError struct{}

func (e *walkStopError) Error() string { return "walk stopped" }

// IsStopWalk returns true if the error is ErrStopWalk.
func IsStopWalk(err error) bool {
	_, ok := err.(*walkStopError)
	return ok
}
