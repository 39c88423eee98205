// Package apperr defines the error taxonomy shared across packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidPath   = errors.New("invalid path")
	// ErrHeaderParse is returned when a line expected to be a header is not one.
	ErrHeaderParse = errors.New("header parse error")
	// ErrLookup is returned when the rhyme collaborator fails or times out.
	ErrLookup = errors.New("rhyme lookup failed")
)

// HeaderParseError carries the offending line.
type HeaderParseError struct {
	Line string
	Err  error
}

func (e *HeaderParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("can't parse %q as reference data: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("can't parse %q as reference data", e.Line)
}

func (e *HeaderParseError) Unwrap() error { return e.Err }

func (e *HeaderParseError) Is(target error) bool {
	return target == ErrHeaderParse
}

// IOError is a filesystem failure tagged with the path that was attempted.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err as an *IOError, or returns nil when err is nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
