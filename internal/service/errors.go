package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned when a request carries no usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned by Register when the email already belongs to a user.
	ErrEmailTaken = errors.New("email already registered")
)

// Issue describes one rejected input field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed client input.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+" "+is.Message)
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}
