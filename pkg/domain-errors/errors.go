// Package domainerrors provides coded errors that services return and the
// HTTP layer translates into status codes. Codes classify the failure for
// callers; messages are safe to surface to clients except for CodeInternal,
// where the transport layer must omit detail.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeBadRequest marks malformed or incomplete input. User-correctable.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing member, registration, or reference.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-write conflict.
	CodeConflict Code = "conflict"
	// CodeInvalidState marks an operation not permitted in the entity's
	// current payment status, such as resending confirmation before payment.
	CodeInvalidState Code = "invalid_state"
	// CodeUnauthorized marks a rejected credential, including webhook
	// signatures that fail authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodePaymentNotSuccessful marks a gateway verification that reported a
	// non-success transaction status. Never retried by this service.
	CodePaymentNotSuccessful Code = "payment_not_successful"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	// Fields lists offending input fields for CodeBadRequest errors.
	Fields []string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a client-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted client-safe message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithFields creates a bad-request error naming the offending input fields.
func WithFields(message string, fields []string) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Fields: fields}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
