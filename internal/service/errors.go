package service

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed service definition. Definitions are
// validated before they reach the engine; a ValidationError never leaves a
// partially provisioned resource behind.
type ValidationError struct {
	// Field names the definition field that failed validation.
	Field string

	// Message describes why the value was rejected.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation checks if an error is or wraps a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// NotFoundError represents a service lookup that matched nothing.
type NotFoundError struct {
	ResourceType string
	ResourceName string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// NewServiceNotFoundError creates a service not found error.
func NewServiceNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "service", ResourceName: name}
}
