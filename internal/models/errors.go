package models

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when checkout is attempted with no items
var ErrEmptyCart = errors.New("cart is empty")

// ErrForbidden is returned when the active role may not perform an action
var ErrForbidden = errors.New("operation not permitted for current role")

// ErrStateNotFound is returned by state stores when nothing has been saved yet
var ErrStateNotFound = errors.New("state not found")

// ValidationError reports bad input to a mutation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an operation on an unknown id
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
