package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying store or driver error, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrOverpayment) against a detailed error.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeOverpayment         = "OVERPAYMENT"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodePersistence         = "PERSISTENCE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeAlreadyVoid         = "ALREADY_VOID"
)

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrOverpayment         = NewDomainError(CodeOverpayment, "Payment exceeds balance due")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrPersistence         = NewDomainError(CodePersistence, "Storage operation failed")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrAlreadyVoid         = NewDomainError(CodeAlreadyVoid, "Document is already void")
)

// NewValidationError creates a VALIDATION_ERROR with a specific message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewPersistenceError wraps a store failure
func NewPersistenceError(op string, cause error) *DomainError {
	return WrapDomainError(CodePersistence, "failed to "+op, cause)
}

// IsRetryable reports whether err is a transient conflict that may be retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
