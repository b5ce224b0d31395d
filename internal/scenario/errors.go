package scenario

import (
	"errors"
	"fmt"
)

// ErrorCode classifies scenario failures.
type ErrorCode string

const (
	// CodeInvariantViolation: a construction invariant does not hold.
	CodeInvariantViolation ErrorCode = "SCENARIO_INVARIANT_VIOLATION"

	// CodeLoad: a scenario file could not be read, validated or decoded.
	CodeLoad ErrorCode = "SCENARIO_LOAD"
)

// InvariantError reports a scenario that must never be executed.
type InvariantError struct {
	Code    ErrorCode
	Ref     ActorRef
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Ref, e.Message)
}

func invariantf(ref ActorRef, format string, args ...any) *InvariantError {
	return &InvariantError{
		Code:    CodeInvariantViolation,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsInvariantError reports whether err wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// LoadError wraps any failure to turn a file into a Scenario.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", CodeLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
