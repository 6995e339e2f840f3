package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// RuntimeError represents a fatal error detected during simplification.
//
// Runtime errors include:
//   - Steps exceeded: the step ceiling was breached
//   - Cancelled: the caller's context was cancelled mid-run
//   - Loose bound variable: a raw de Bruijn index reached the traversal
//
// None of them is retried. The whole Simplify call fails and no partial
// result is returned.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStepsExceeded indicates the run exceeded its step ceiling.
	ErrCodeStepsExceeded RuntimeErrorCode = "STEPS_EXCEEDED"

	// ErrCodeCancelled indicates the context was cancelled.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"

	// ErrCodeLooseBVar indicates a bound variable escaped instantiation.
	ErrCodeLooseBVar RuntimeErrorCode = "LOOSE_BVAR"
)

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewCancelledError wraps a context error.
func NewCancelledError(cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCancelled,
		Message: "simplification cancelled",
		Err:     cause,
	}
}

// NewLooseBVarError reports a bound variable seen during traversal. This
// is a bug in whoever built the input, never a normal case.
func NewLooseBVarError(v *expr.BVar) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeLooseBVar,
		Message: "loose bound variable reached the traversal",
		Details: map[string]string{
			"index": fmt.Sprintf("%d", v.Idx),
		},
	}
}

// IsCancelled returns true if the error is a cancellation error.
// Uses errors.As to handle wrapped errors.
func IsCancelled(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCancelled
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInvariantViolation returns true if the error reports a loose bound
// variable.
func IsInvariantViolation(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeLooseBVar
	}
	return false
}

// ErrorCode returns the RuntimeErrorCode carried by err, or "" when err
// is not an engine error. StepsExceededError maps to ErrCodeStepsExceeded.
func ErrorCode(err error) RuntimeErrorCode {
	var se *StepsExceededError
	if errors.As(err, &se) {
		return ErrCodeStepsExceeded
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
