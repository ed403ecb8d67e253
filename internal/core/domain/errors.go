package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotAuthenticated = errors.New("user not found")
	ErrForbidden        = errors.New("access forbidden")
	ErrDuplicateKey     = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrSellerNotFound   = errors.New("seller not found")
	ErrUserHasClients   = errors.New("user still owns clients")
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrAccountDisabled is the Forbidden case for inactive accounts.
	ErrAccountDisabled = fmt.Errorf("account disabled: %w", ErrForbidden)
)

// ValidationError carries one message per rejected request field.
type ValidationError struct {
	Fields []string
}

// NewValidationError returns a ValidationError holding fields.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return strings.Join(e.Fields, "; ")
}

// InvalidField builds a single-field validation error.
func InvalidField(field, format string, args ...any) error {
	return NewValidationError(field + " " + fmt.Sprintf(format, args...))
}
