package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-lexicon/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
var (
	// ErrInvalidConfig is returned by constructors given unusable dependencies.
	ErrInvalidConfig = errors.New("invalid service configuration")

	// ErrWordNotFound indicates that a word does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrWordNotFound = errors.New("word not found")
)

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "enrich_words")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with operation context. Known sentinel errors
// are returned directly so callers can compare them.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrWordNotFound) || errors.Is(err, store.ErrNotFound) {
		return ErrWordNotFound
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
