// Package error defines the error kinds surfaced by the lexicon core and a
// small wrapping type that carries one of them alongside an optional cause.
package error

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories the core can report.
type Kind int

const (
	Success Kind = iota
	NotFound
	Failure
	OutOfMemory
	InvalidKey
	InvalidRecord
	Parameter
	Access
	Duplicate
	EndOfData
	NoRule
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NotFound:
		return "not found"
	case Failure:
		return "failure"
	case OutOfMemory:
		return "out of memory"
	case InvalidKey:
		return "invalid key"
	case InvalidRecord:
		return "invalid record"
	case Parameter:
		return "bad parameter"
	case Access:
		return "access denied"
	case Duplicate:
		return "duplicate key"
	case EndOfData:
		return "end of data"
	case NoRule:
		return "no rule matched"
	default:
		return "unknown error"
	}
}

// Error wraps a Kind with an optional message and cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%v: %v: %v", e.Kind, e.Message, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing error.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Of reports the Kind carried by err, if err is (or wraps) an *Error.
// A nil err reports Success; any other non-nil err reports Failure.
func Of(err error) Kind {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Failure
}
