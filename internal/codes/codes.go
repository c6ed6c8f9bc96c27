// Package codes defines the stable error taxonomy shared by every ICN
// subsystem. Kinds are discriminators, not concrete Go types: callers
// test an error's Kind (via Is or the Kind field / Code()) rather than
// matching sentinel error values, so the external HTTP layer (out of scope here) can map a Kind to
// a status code without importing subsystem packages.
package codes

import "fmt"

// Kind identifies the category of an Error, independent of its message.
type Kind string

const (
	InsufficientMana  Kind = "InsufficientMana"
	InvalidBlock      Kind = "InvalidBlock"
	PolicyDenied      Kind = "PolicyDenied"
	Storage           Kind = "Storage"
	Network           Kind = "Network"
	CircuitOpen       Kind = "CircuitOpen"
	Timeout           Kind = "Timeout"
	QuorumNotMet      Kind = "QuorumNotMet"
	ThresholdNotMet   Kind = "ThresholdNotMet"
	InternalError     Kind = "InternalError"
	NotFound          Kind = "NotFound"
	InvalidArgument   Kind = "InvalidArgument"
	QueueFull         Kind = "QueueFull"
	Unauthorized      Kind = "Unauthorized"
)

// Error wraps a Kind, a human message, and an optional underlying cause.
// Its Error() string renders as "<Kind>: <message>[: <cause>]"; the stable
// discriminator external layers key off of is Code(), the Kind alone.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns the stable string discriminator (the Kind alone) used by
// external layers to select an HTTP status code.
func (e *Error) Code() string { return string(e.Kind) }

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error around an existing cause. Returns nil if cause is
// nil so call sites can write `return codes.Wrap(Storage, "put block", err)`
// unconditionally inside a function that may also return nil.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
