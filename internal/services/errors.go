package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyProcessed = errors.New("application already processed")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrSelfInquiry      = errors.New("cannot apply to your own room")
	ErrValidation       = errors.New("validation failed")
)

// ValidationError carries the reason a request was rejected before any write.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}
