// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrResultNotOk indicates the value of a failed result was read
	ErrResultNotOk = errors.New("result is not ok")

	// ErrResultNotErr indicates the error of a successful result was read
	ErrResultNotErr = errors.New("result is not an error")

	// ErrSchedulerNotConfigured indicates a delayed retry has no scheduler to run on
	ErrSchedulerNotConfigured = errors.New("scheduler is not configured")

	// ErrContinuationReused indicates a step invoked its next callback more than once
	ErrContinuationReused = errors.New("continuation invoked more than once")

	// ErrChainConsumed indicates a chain was reused after an append or Finally
	ErrChainConsumed = errors.New("chain has already been consumed")

	// ErrNilStep indicates a nil step was appended to a chain
	ErrNilStep = errors.New("step cannot be nil")

	// ErrSchedulerClosed indicates a task was scheduled on a closed scheduler
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrPoolNotRunning indicates a task was submitted to a pool that is not started
	ErrPoolNotRunning = errors.New("worker pool is not running")

	// ErrPoolFull indicates the worker pool queue is full
	ErrPoolFull = errors.New("worker pool is full")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// StepError describes a failure raised inside a chain step
type StepError struct {
	// Index is the position of the step in the chain
	Index int

	// Name is the step name
	Name string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Name, e.Cause)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *StepError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewStepError creates a new step error
func NewStepError(index int, name string, cause error) *StepError {
	return &StepError{
		Index: index,
		Name:  name,
		Cause: cause,
	}
}

// PanicError carries a value recovered from a panicking step
type PanicError struct {
	// Value is the recovered panic value
	Value any
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
