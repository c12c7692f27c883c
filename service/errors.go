package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrImportParse   = errors.New("import payload is not valid JSON")
	ErrImportSchema  = errors.New("import payload is missing required fields")
	ErrPayoffHorizon = errors.New("debts are not paid off within the maximum horizon")
	ErrNoResults     = errors.New("no payoff plan has been calculated")
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
