package model

import (
	"fmt"

	"github.com/google/uuid"
)

// RunError wraps a failure raised while applying a recipe. OriginID, when
// not uuid.Nil, names the tree node nearest to the failure so a diagnostic
// marker can be attached there.
type RunError struct {
	Recipe   string
	OriginID uuid.UUID
	Cause    error
}

// Error implements error.
func (e *RunError) Error() string {
	return fmt.Sprintf("recipe %s failed: %v", e.Recipe, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *RunError) Unwrap() error { return e.Cause }

// TimeoutError reports that a recipe's per-file step exceeded the context's
// timeout budget. It is fired at most once per recipe-batch step.
type TimeoutError struct {
	Recipe string
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("recipe %s exceeded the run timeout", e.Recipe)
}
