package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so transports can
// classify failures with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrTableNotFound   = fmt.Errorf("table %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrUnitNotFound    = fmt.Errorf("rental unit %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrTableBusy       = fmt.Errorf("table is occupied by another order: %w", ErrConflict)
	ErrUnitBusy        = fmt.Errorf("rental unit is already occupied: %w", ErrConflict)
	ErrUnitUnavailable = fmt.Errorf("rental unit is under maintenance: %w", ErrConflict)
	ErrStaleWrite      = fmt.Errorf("record was modified concurrently: %w", ErrConflict)
	ErrDuplicate       = fmt.Errorf("record already exists: %w", ErrConflict)

	ErrSessionAlreadyCompleted = fmt.Errorf("session already completed: %w", ErrInvalidStateTransition)
	ErrSessionNotActive        = fmt.Errorf("session is not active: %w", ErrInvalidStateTransition)

	ErrInvalidStatus = fmt.Errorf("invalid status: %w", ErrValidation)
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StockError carries the product that could not cover a requested quantity.
type StockError struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
