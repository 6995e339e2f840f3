package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
)

func TestStepQuota_Check(t *testing.T) {
	tests := []struct {
		name      string
		maxSteps  int
		checks    int
		wantError bool
	}{
		{"under limit", 5, 3, false},
		{"at limit", 5, 5, false},
		{"over limit", 5, 6, true},
		{"zero ceiling", 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewStepQuota(tt.maxSteps)
			var err error
			for i := 0; i < tt.checks; i++ {
				if err = q.Check(); err != nil {
					break
				}
			}
			if tt.wantError {
				require.Error(t, err)
				var se *StepsExceededError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.maxSteps+1, se.Steps)
				assert.Equal(t, tt.maxSteps, se.Limit)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.checks, q.Current())
		})
	}
}

func TestStepQuota_Reset(t *testing.T) {
	q := NewStepQuota(2)
	require.NoError(t, q.Check())
	require.NoError(t, q.Check())
	q.Reset()

	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check())
	assert.Equal(t, 2, q.MaxSteps())
}

func TestStepsExceededError_Message(t *testing.T) {
	err := &StepsExceededError{Steps: 11, Limit: 10}
	assert.Equal(t, "simplification exceeded max steps: 11 steps > 10 limit", err.Error())
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	steps := fmt.Errorf("run r1: %w", &StepsExceededError{Steps: 2, Limit: 1})
	cancelled := fmt.Errorf("run r2: %w", NewCancelledError(context.Canceled))
	loose := fmt.Errorf("run r3: %w", NewLooseBVarError(expr.MkBVar(4)))

	assert.True(t, IsStepsExceededError(steps))
	assert.False(t, IsStepsExceededError(cancelled))

	assert.True(t, IsCancelled(cancelled))
	assert.True(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(loose))

	assert.True(t, IsInvariantViolation(loose))
	assert.False(t, IsInvariantViolation(steps))

	assert.Equal(t, ErrCodeStepsExceeded, ErrorCode(steps))
	assert.Equal(t, ErrCodeCancelled, ErrorCode(cancelled))
	assert.Equal(t, ErrCodeLooseBVar, ErrorCode(loose))
	assert.Equal(t, RuntimeErrorCode(""), ErrorCode(errors.New("other")))

	var re *RuntimeError
	require.True(t, errors.As(loose, &re))
	assert.Equal(t, "4", re.Details["index"])
	assert.Equal(t, "CANCELLED: simplification cancelled: context canceled", NewCancelledError(context.Canceled).Error())
}
