package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors returned by the analytics core.
type ErrorKind string

const (
	// KindInvalidArgument marks out-of-range configuration or a malformed selection.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindNotFound marks a document id that is not present in the corpus or store.
	KindNotFound ErrorKind = "not_found"
)

// Sentinels for errors.Is checks against any *Error of the same kind.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// Error is a typed error carrying its kind, the operation that failed, and the offending input.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return string(e.Kind)
	}
}

// Is reports whether target is an *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidArgumentf returns an InvalidArgument error for op.
func InvalidArgumentf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a NotFound error for op.
func NotFoundf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
