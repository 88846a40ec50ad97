// Package errors holds the sentinel errors shared by the services and the
// HTTP layer. Handlers translate them into status codes with errors.Is/As.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrForbidden    = fmt.Errorf("not allowed")
	ErrDuplicate    = fmt.Errorf("duplicate record")
	ErrUnauthorized = fmt.Errorf("unauthorized")
)

// ValidationError is a form-level or field-level validation failure. It is
// raised before any write reaches the record store.
type ValidationError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

func (v *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError when it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
