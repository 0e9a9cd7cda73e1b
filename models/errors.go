package models

import "fmt"

// ErrorClass tags a processing failure at the site it occurs, so the worker
// never has to infer retryability from message text.
type ErrorClass string

const (
	ErrClassTransient ErrorClass = "transient"
	ErrClassPermanent ErrorClass = "permanent"
)

// ProcessingError is a failure raised by any pipeline step.
type ProcessingError struct {
	Class ErrorClass
	Step  string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s error at %s: %v", e.Class, e.Step, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a recoverable failure; the broker retries these.
func Transient(step string, err error) *ProcessingError {
	return &ProcessingError{Class: ErrClassTransient, Step: step, Err: err}
}

// Permanent wraps err as a non-recoverable failure; no retry is scheduled.
func Permanent(step string, err error) *ProcessingError {
	return &ProcessingError{Class: ErrClassPermanent, Step: step, Err: err}
}
