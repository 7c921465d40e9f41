package vfs

import (
	"errors"
	"fmt"
	"os"
)

// Kind classifies filesystem failures so callers can produce
// shell-style diagnostics without string matching.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindExists
	KindNotADirectory
	KindIsADirectory
	KindPermissionDenied
	KindInvalidPath
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "No such file or directory"
	case KindExists:
		return "File exists"
	case KindNotADirectory:
		return "Not a directory"
	case KindIsADirectory:
		return "Is a directory"
	case KindPermissionDenied:
		return "Permission denied"
	case KindInvalidPath:
		return "Invalid path"
	default:
		return "I/O error"
	}
}

// PathError records a failed operation, the path it applied to and the
// failure kind.
type PathError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Kind)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ErrInvalidPath is returned for paths containing NUL bytes.
var ErrInvalidPath = errors.New("invalid path")

// NewPathError builds a PathError classifying err.
func NewPathError(op, path string, err error) *PathError {
	if pe, ok := err.(*PathError); ok {
		return &PathError{Op: op, Path: path, Kind: pe.Kind, Err: pe.Err}
	}
	return &PathError{Op: op, Path: path, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, os.ErrExist):
		return KindExists
	case errors.Is(err, os.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, ErrInvalidPath):
		return KindInvalidPath
	default:
		return KindOther
	}
}

// KindOf extracts the failure kind from any error returned by this
// package.
func KindOf(err error) Kind {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}
