package store

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrOpen   = errors.New("open store")
	ErrWrite  = errors.New("write store")
	ErrQuery  = errors.New("query store")
	ErrBackup = errors.New("backup store")
)

// Error is a store failure of a given kind.
type Error struct {
	Kind error
	Path string
	Err  error
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
