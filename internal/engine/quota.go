package engine

import (
	"errors"
	"fmt"
)

// StepQuota counts node visits and rule-application attempts for one
// Simplify call and enforces the step ceiling.
//
// The count survives restarts: a pass that is thrown away after a
// canonicalizer mutation still paid for its steps. Only a new Simplify
// call resets it.
type StepQuota struct {
	maxSteps int // Maximum allowed steps
	current  int // Current step count
}

// NewStepQuota creates a new quota with the given ceiling.
func NewStepQuota(maxSteps int) *StepQuota {
	return &StepQuota{
		maxSteps: maxSteps,
	}
}

// Check increments the step counter and validates against the ceiling.
//
// With ceiling N the first N calls succeed and call N+1 returns a
// StepsExceededError.
func (q *StepQuota) Check() error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *StepQuota) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *StepQuota) Current() int {
	return q.current
}

// MaxSteps returns the ceiling.
func (q *StepQuota) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds its step ceiling.
//
// Steps is the step that breached the ceiling, so Steps == Limit+1.
type StepsExceededError struct {
	Steps int // Number of steps attempted
	Limit int // Maximum allowed steps
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("simplification exceeded max steps: %d steps > %d limit", e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
