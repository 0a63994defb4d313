package tourerr

import (
	"errors"
	"fmt"
)

var (
	ErrInput   = errors.New("input error")
	ErrIO      = errors.New("io error")
	ErrCapture = errors.New("capture error")
)

// Error carries the failure kind together with the operation and the path
// (or record identity) it happened on.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match on the kind as well as on the wrapped cause.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

// Input wraps err as an ErrInput failure of op.
func Input(op, path string, err error) error {
	return &Error{Kind: ErrInput, Op: op, Path: path, Err: err}
}

// Inputf is Input with a formatted cause.
func Inputf(op, path, format string, args ...any) error {
	return &Error{Kind: ErrInput, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// IO wraps err as an ErrIO failure of op on path.
func IO(op, path string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

// Capture wraps err as an ErrCapture failure of op.
func Capture(op, path string, err error) error {
	return &Error{Kind: ErrCapture, Op: op, Path: path, Err: err}
}
