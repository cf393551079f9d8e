// Package apperrors defines the error kinds surfaced by the agreements engine.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a rejected field on create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransitionError reports a status change not permitted by the
// agreement lifecycle state machine.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// CeilingExceededError reports a purchase order that would push the
// agreement's monetized total over its value ceiling. All amounts are
// normalized to the base currency (SAR).
type CeilingExceededError struct {
	CurrentTotal decimal.Decimal
	NewValue     decimal.Decimal
	Ceiling      decimal.Decimal
}

func (e *CeilingExceededError) Error() string {
	return fmt.Sprintf(
		"adding this PO would exceed the agreement ceiling: current %s SAR, new PO %s SAR, ceiling %s SAR",
		e.CurrentTotal.StringFixed(2), e.NewValue.StringFixed(2), e.Ceiling.StringFixed(2))
}
