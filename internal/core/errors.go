package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDuplicatePeriod = errors.New("a monthly plan already exists for this period")
	ErrNotFound        = errors.New("not found")
	ErrNotDeletable    = errors.New("plan can only be deleted before its month starts")
	ErrNotEditable     = errors.New("plan can only be edited before its month starts")
	ErrComputation     = errors.New("computation error")
	ErrStorage         = errors.New("storage error")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ComputationError reports a derived figure that could not be computed,
// typically a stripping ratio over a zero ore target.
type ComputationError struct {
	Date  Date
	Field string
	Cause string
}

func (e *ComputationError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("compute %s: %s", e.Field, e.Cause)
	}
	return fmt.Sprintf("compute %s for %s: %s", e.Field, e.Date, e.Cause)
}

func (e *ComputationError) Unwrap() error { return ErrComputation }
