// Package domainerrors provides code-carrying errors for domain logic.
//
// Services return these so callers can branch on a machine-checkable code
// instead of parsing message text. Stores return sentinel errors
// (pkg/platform/sentinel) and services translate them into domain errors at
// the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set is closed: transports map each
// code to a protocol status, so adding a code means updating that mapping.
type Code string

const (
	// CodeInvalidInput flags null/empty/zero arguments where disallowed.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized flags a failed role or binding check.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound flags absence of an asset, account, or identity record.
	CodeNotFound Code = "not_found"
	// CodeConflict flags duplicate creation (asset, registration, binding).
	CodeConflict Code = "conflict"
	// CodeStateConflict flags an operation blocked by current state:
	// frozen account, paused ledger, inactive asset, unverified recipient,
	// compliance denial.
	CodeStateConflict Code = "state_conflict"
	// CodeCapacityExceeded flags supply-cap or balance/allowance exhaustion.
	CodeCapacityExceeded Code = "capacity_exceeded"
	// CodeLengthMismatch flags batch input slices of unequal length.
	CodeLengthMismatch Code = "length_mismatch"
	// CodeInvariantViolation flags a model-level guard failure. Services
	// usually translate it into a caller-facing code before returning.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal wraps unexpected store or collaborator failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and optional cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

// New constructs a domain error.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the classification of the error.
func (e *Error) Code() Code {
	return e.code
}

// HasCode reports whether err (or anything it wraps) is a domain error
// carrying the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is reports whether err is a domain error at all.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// CodeOf extracts the code from err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
