package study

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify an error returned by this package.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// Error is returned by every store, engine and controller operation that
// rejects a command. Kind is one of the sentinel errors above.
type Error struct {
	Op   string
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	return s
}

func (e *Error) Unwrap() error { return e.Kind }

func validationf(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFound(op string, id int) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: fmt.Sprintf("task %d", id)}
}

func invalidStatef(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidState, Msg: fmt.Sprintf(format, args...)}
}
