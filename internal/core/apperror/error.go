// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeMultipleWarehouses     = "MULTIPLE_WAREHOUSES"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Reconciliation errors (422)
	CodeOverReceipt      = "OVER_RECEIPT"
	CodeOverPick         = "OVER_PICK"
	CodeQuantityMismatch = "QUANTITY_MISMATCH"

	// Lifecycle errors (409)
	CodeInvalidTransition = "INVALID_TRANSITION"

	// Collaborator errors (502)
	CodeUnexpectedResponseShape = "UNEXPECTED_RESPONSE_SHAPE"
	CodeUpstream                = "UPSTREAM_ERROR"

	// Multi-step sequences (500)
	CodeOrchestrationFailure = "ORCHESTRATION_FAILURE"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidTransition is returned when a state machine has no rule for
// (status, action). The document state is left unchanged.
func NewInvalidTransition(document, status, action string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("%s: action %q is not allowed in status %q", document, action, status),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document": document, "status": status, "action": action},
	}
}

// NewOverReceipt reports cumulative received quantity above the ordered quantity.
func NewOverReceipt(ordered, received string) *AppError {
	return &AppError{
		Code:       CodeOverReceipt,
		Message:    "Received quantity exceeds ordered quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"ordered": ordered, "received": received},
	}
}

// NewOverPick reports a picked quantity above the ordered quantity.
func NewOverPick(ordered, picked string) *AppError {
	return &AppError{
		Code:       CodeOverPick,
		Message:    "Picked quantity exceeds ordered quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"ordered": ordered, "picked": picked},
	}
}

// NewQuantityMismatch reports accepted + rejected != received.
func NewQuantityMismatch(received, accepted, rejected string) *AppError {
	return &AppError{
		Code:       CodeQuantityMismatch,
		Message:    "Accepted and rejected quantities must add up to received quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"received": received, "accepted": accepted, "rejected": rejected},
	}
}

// NewUnexpectedResponseShape is a hard failure: a collaborator answered with
// a payload that cannot be mapped without guessing.
func NewUnexpectedResponseShape(endpoint, reason string) *AppError {
	return &AppError{
		Code:       CodeUnexpectedResponseShape,
		Message:    fmt.Sprintf("Unexpected response shape from %s: %s", endpoint, reason),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"endpoint": endpoint, "reason": reason},
	}
}

// NewUpstream wraps a non-2xx answer of the backend collaborator.
func NewUpstream(endpoint string, status int) *AppError {
	return &AppError{
		Code:       CodeUpstream,
		Message:    fmt.Sprintf("Backend request %s failed with status %d", endpoint, status),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"endpoint": endpoint, "status": status},
	}
}

// NewOrchestrationFailure reports a multi-step sequence that did not complete.
// Succeeded steps were rolled back together with the failed one.
func NewOrchestrationFailure(operation string, succeeded, failed []string, cause error) *AppError {
	if succeeded == nil {
		succeeded = []string{}
	}
	if failed == nil {
		failed = []string{}
	}
	return &AppError{
		Code:       CodeOrchestrationFailure,
		Message:    fmt.Sprintf("%s did not complete", operation),
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"operation": operation,
			"succeeded": succeeded,
			"failed":    failed,
		},
		Err: cause,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether the outermost AppError in the chain carries code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// IsInvalidTransition checks if error is CodeInvalidTransition
func IsInvalidTransition(err error) bool {
	return HasCode(err, CodeInvalidTransition)
}

// IsReconciliation reports over-receipt, over-pick and quantity mismatch errors.
func IsReconciliation(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeOverReceipt, CodeOverPick, CodeQuantityMismatch:
		return true
	}
	return false
}

// IsUnexpectedResponseShape checks if error is CodeUnexpectedResponseShape
func IsUnexpectedResponseShape(err error) bool {
	return HasCode(err, CodeUnexpectedResponseShape)
}
