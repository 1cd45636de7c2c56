// Package domainerrors carries coded errors across the service boundary.
//
// Stores return sentinel errors (see pkg/platform/sentinel). Services translate
// those into coded errors so transports can map them to status codes without
// knowing anything about persistence.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeNotFound: a referenced identifier does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: an identifier is already taken on create.
	CodeConflict Code = "already_exists"
	// CodeUnauthorized: no authenticated caller.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: the caller lacks the ownership or role the operation requires.
	CodeForbidden Code = "forbidden"
	// CodeInvalidInput: a value falls outside its domain constraints.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidTransition: the requested status change is not permitted from the current state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeBadRequest: the request could not be decoded.
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation is raised by model constructors; services convert it
	// to CodeInvalidInput before it leaves the domain.
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Err is the optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost coded error in err's chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the user-facing message of a coded error, or the raw error text.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
