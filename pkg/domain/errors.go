package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these to classify a DomainError.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")
)

// DomainError wraps a sentinel kind with a human-readable message.
type DomainError struct {
	Err     error
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports that an entity with the given ID does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewConflictError reports a concurrent-modification or uniqueness conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewForbiddenError reports that the caller may not act on the entity,
// e.g. a client reference that does not match the booking.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: message}
}

// NewValidationError reports a malformed or out-of-range input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: message}
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a conflict domain error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// NewInvalidStateError reports an illegal state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("invalid state transition from %s to %s", from, to),
	}
}
