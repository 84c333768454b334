package engine

import (
	"errors"
	"fmt"
)

// PlanError reports a run plan the engine refuses to execute.
//
// Malformed tabular input never produces a PlanError; it degrades to empty
// results instead. Only operator-supplied parameters are validated.
type PlanError struct {
	// Field names the offending plan field.
	Field string
	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s: %s", e.Field, e.Message)
}

// IsPlanError returns true if err is or wraps a PlanError.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}
