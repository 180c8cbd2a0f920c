package shared

import (
	"errors"
	"fmt"
)

// Error codes used by DomainError. The HTTP layer maps every code listed here
// to a status; unknown codes fall through to 500.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeInUse               = "IN_USE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, shared.ErrNotFound) match any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may resubmit the same request.
// Only transaction-level conflicts are retryable.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeConcurrencyConflict
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError reports that the referenced resource does not exist
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewInsufficientStockError reports that a decreasing movement exceeds the available quantity
func NewInsufficientStockError(available, requested int) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock: available %d, requested %d", available, requested))
}

// NewConflictError reports a transaction that could not commit because of concurrent modification
func NewConflictError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeConcurrencyConflict,
		Message: message,
		Err:     cause,
	}
}

// NewInvalidInputError reports a request that violates a domain rule
func NewInvalidInputError(message string) *DomainError {
	return NewDomainError(CodeInvalidInput, message)
}

// NewAlreadyExistsError reports a uniqueness violation
func NewAlreadyExistsError(message string) *DomainError {
	return NewDomainError(CodeAlreadyExists, message)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
	ErrInUse               = NewDomainError(CodeInUse, "Resource is still referenced")
)

// CodeOf returns the domain code carried by err, or "" if err is not a DomainError
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsInsufficientStock reports whether err is an insufficient-stock domain error
func IsInsufficientStock(err error) bool {
	return CodeOf(err) == CodeInsufficientStock
}

// IsConflict reports whether err is a retryable transaction conflict
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConcurrencyConflict
}
