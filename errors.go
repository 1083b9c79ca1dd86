package covgate

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError wraps an operational failure in the pipeline: a tool that
// exited non-zero or could not be spawned, unparseable tool output, or a
// filesystem problem. It maps to exit code 2.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError wraps err as a RuntimeError.
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError reports whether err is or wraps a RuntimeError.
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// ThresholdError is the normal failure outcome of the gate: coverage below a
// configured minimum. It maps to exit code 1 and prints a concise comparison
// per violated metric.
type ThresholdError struct {
	Violations []Violation
}

func (e *ThresholdError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// NewThresholdError creates a ThresholdError from the gate's violations.
func NewThresholdError(violations []Violation) *ThresholdError {
	return &ThresholdError{Violations: violations}
}

// IsThresholdError reports whether err is or wraps a ThresholdError.
func IsThresholdError(err error) bool {
	var thresholdErr *ThresholdError
	return err != nil && errors.As(err, &thresholdErr)
}
