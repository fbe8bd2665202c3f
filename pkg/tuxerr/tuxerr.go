// Package tuxerr defines the error taxonomy shared by every tux component.
//
// Components never terminate the process. They return an *Error carrying a
// Kind, and the command layer maps it to a diagnostic line and an exit code.
package tuxerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNotFound
	KindParse
	KindNetwork
	KindIO
	KindCycle
	KindAborted
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not-found"
	case KindParse:
		return "parse"
	case KindNetwork:
		return "network"
	case KindIO:
		return "io"
	case KindCycle:
		return "cycle"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ErrAborted is returned when the user rejects the install set.
var ErrAborted = errors.New("operation aborted by user")

// Error is a classified failure with an optional cause.
type Error struct {
	Kind    Kind
	Package string // Package being processed, if any
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// ForPackage sets the package the error relates to and returns e.
func (e *Error) ForPackage(name string) *Error {
	e.Package = name
	return e
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status.
// Every failure, including a user abort, exits with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
