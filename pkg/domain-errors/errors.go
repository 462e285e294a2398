// Package dErrors provides coded domain errors. Services return these so
// transports can translate them into consistent HTTP responses without
// inspecting error strings.
//
// For infrastructure facts (not found in store, expired, already used) stores
// return pkg/platform/sentinel errors; services translate those into coded
// domain errors at the boundary.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeNotFound: the requested entity does not exist for this tenant, or
	// no active rule/policy matched (policy exhaustion). Never retried.
	CodeNotFound Code = "not_found"
	// CodeInvalidInput: malformed request input, rejected at the boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation: a domain invariant would be broken (overlapping
	// region sets, unknown compliance tag, illegal state transition).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeConflict: the operation conflicts with existing state.
	CodeConflict Code = "conflict"
	// CodeUnauthorized: missing or invalid caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal: unexpected failure; details stay server-side.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
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

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause for
// errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors so unknown failures never map to a 4xx.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status. Unknown codes map to 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
