// Package domainerrors provides code-carrying errors for the service layer.
//
// Stores return pkg/platform/sentinel errors (infrastructure facts); services
// translate them into domain errors with one of the codes below; the HTTP
// layer maps codes to statuses via ToHTTPStatus.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and the transport layer.
type Code string

const (
	// CodeInvalidInput marks malformed caller input (bad email, code, id).
	// Never retried.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally broken request (unparseable body).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an absent entity (event, visitor, challenge).
	CodeNotFound Code = "not_found"
	// CodeConflict marks a state conflict (event at capacity, illegal
	// transition edge).
	CodeConflict Code = "conflict"
	// CodeRateLimited marks exhausted OTP attempts or an in-flight duplicate
	// verification.
	CodeRateLimited Code = "rate_limited"
	// CodeInvariantViolation marks an entity that cannot satisfy the
	// requested operation (event without a registration form).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable marks a transient infrastructure failure after the
	// retry budget is spent. Callers may retry shortly.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks unexpected failures. Details are never exposed to
	// callers.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a Code and an operator-facing message.
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

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
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
// non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, empty for non-domain errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
