package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"        // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized"   // Authentication required
	EFORBIDDEN    = "forbidden"      // Permission denied
	ENOTFOUND     = "not_found"      // Resource not found
	ECONFLICT     = "conflict"       // Resource conflict (e.g., duplicate)
	ERATELIMIT    = "rate_limit"     // Too many requests
	ELIMIT        = "limit_exceeded" // Plan quota exhausted
	EINTERNAL     = "internal"       // Internal server error
	EPAYMENT      = "payment"        // Payment required
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "quota.consume_search")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return ELIMIT
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
// Internal errors are masked with a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// QuotaExceededError is the structured denial returned when a tenant's plan
// quota for a metric is exhausted. It carries enough detail for a client to
// render "you have 0 of N remaining, upgrade to continue". Limit and
// Remaining are nil for unlimited caps (which never produce this error in
// practice, but the shape matches the API contract).
type QuotaExceededError struct {
	Op        string
	Resource  Metric
	Plan      PlanID
	Limit     *int
	Used      int
	Remaining *int
}

func (e *QuotaExceededError) Error() string {
	if e.Limit != nil {
		return fmt.Sprintf("%s quota exceeded for plan %s (%d of %d used)",
			e.Resource, e.Plan, e.Used, *e.Limit)
	}
	return fmt.Sprintf("%s quota exceeded for plan %s", e.Resource, e.Plan)
}

// QuotaExceeded creates a quota denial for a bounded cap.
func QuotaExceeded(op string, resource Metric, plan PlanID, limit, used int) *QuotaExceededError {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaExceededError{
		Op:        op,
		Resource:  resource,
		Plan:      plan,
		Limit:     &limit,
		Used:      used,
		Remaining: &remaining,
	}
}

// IsQuotaExceeded reports whether err is a quota denial and returns it.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
