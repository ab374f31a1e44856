package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the core returns to the API either wraps one of
// these or is treated as internal.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
)

var (
	ErrUserExists           = fmt.Errorf("%w: user with this email or username already exists", ErrConflict)
	ErrAlreadyEnrolled      = fmt.Errorf("%w: already enrolled in this course", ErrConflict)
	ErrEnrollmentInProgress = fmt.Errorf("%w: enrollment already in progress", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrAuthentication)

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound  = fmt.Errorf("course %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
)

// ValidationError describes a rejected input. Message is safe to show to
// the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for field with the given message.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
