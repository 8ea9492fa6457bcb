package reshape

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to test an error returned by this package against them.
var (
	ErrNotFound        = errors.New("file not found")
	ErrDecode          = errors.New("decode error")
	ErrWrongRecordKind = errors.New("wrong record kind")
	ErrSchemaBuild     = errors.New("schema build error")
)

// Error records a failed operation on a file.
type Error struct {
	Op   string // Operation, e.g. "read observations".
	Path string // File path, empty for operations on in-memory records.
	Kind error  // One of the error kinds.
	Err  error  // The underlying error, its message is kept as is.
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("reshape: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("reshape: %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the error kind and the underlying error.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// kindLabel returns the metrics label of an error.
func kindLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrWrongRecordKind):
		return "wrong_kind"
	case errors.Is(err, ErrSchemaBuild):
		return "schema"
	}
	return "error"
}
