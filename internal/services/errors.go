package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfPurchase      = errors.New("cannot buy own product")
	ErrUnauthorized      = errors.New("invalid credentials")
)

// ValidationError reports the field and rule that rejected an input.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, rule string) error {
	return &ValidationError{Field: field, Rule: rule}
}
