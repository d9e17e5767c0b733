// Package domainerrors provides coded domain errors. Services return these so
// transports can translate failures into protocol responses without string
// matching, and so callers can branch on the kind of failure rather than
// its wording. Import aliased as dErrors.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeUnauthorized means the caller failed a capability check.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is known but not allowed this operation.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means a uniqueness or already-done condition was hit
	// (duplicate key, already voted, already approved).
	CodeConflict Code = "conflict"
	// CodeInvalidInput means a malformed value (address, amount, option count).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest means a structurally invalid request.
	CodeBadRequest Code = "bad_request"
	// CodeValidation means a field failed validation rules.
	CodeValidation Code = "validation"
	// CodeInvariantViolation means an entity invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodePreconditionFailed means the entity is in the wrong state for the
	// requested transition.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeUpstream means a collaborator call (ledger gateway) failed or
	// timed out. Safe to retry.
	CodeUpstream Code = "upstream_failure"
	// CodeTimeout means a bounded operation exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal means an unexpected internal failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with a human-readable reason.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf extracts the outermost code from err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is so call sites can stay on this package.
func Is(err, target error) bool { return errors.Is(err, target) }
