package errors

import "fmt"

// ValidationError represents user input validation failures.
// Use this for invalid request parameters or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "action", "runner type", "execution")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// DispatchError represents a failed or timed-out dispatch to the
// execution backend. The execution record survives as historical
// evidence; the error carries the detail that was written to it.
type DispatchError struct {
	// StatusCode is the HTTP status returned by the backend (if any)
	StatusCode int

	// Reason is the human-readable failure description
	Reason string

	// Cause is the underlying transport error, if the call never completed
	Cause error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("dispatch failed [HTTP %d]: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("dispatch failed: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// UnimplementedError represents an operation that is intentionally not
// supported. MethodNotAllowed distinguishes "resource exists but the
// method is rejected" from plain "not implemented".
type UnimplementedError struct {
	// Operation describes the rejected operation (e.g., "runner type update")
	Operation string

	// MethodNotAllowed selects 405 semantics instead of 501
	MethodNotAllowed bool
}

// Error implements the error interface.
func (e *UnimplementedError) Error() string {
	if e.MethodNotAllowed {
		return fmt.Sprintf("%s is not allowed", e.Operation)
	}
	return fmt.Sprintf("%s is not implemented", e.Operation)
}
