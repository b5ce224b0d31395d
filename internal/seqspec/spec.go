// Package seqspec provides sequential specifications: single-threaded
// reference state machines used as correctness oracles.
//
// The verifier applies operations to a Spec one at a time, in a candidate
// linearization order, and compares each returned Outcome with what the
// concurrent run recorded. Snapshot must capture everything that affects
// future results, since equal snapshots are deduplicated during search.
package seqspec

import (
	"errors"
	"fmt"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Spec is a sequential specification.
type Spec interface {
	// Apply executes op against the current state and returns what the
	// operation would return if run alone. An error means the operation
	// is not part of this specification; it is never a mismatch.
	Apply(op string, args []ir.IRValue) (execution.Outcome, error)

	// Snapshot returns a canonical representation of the state.
	Snapshot() ir.IRValue

	// Clone returns an independent copy of the state.
	Clone() Spec
}

// Crasher is implemented by specifications with volatile state that a
// crash resets. The verifier calls Crash at every crash node.
type Crasher interface {
	Crash()
}

// Factory creates a Spec in its initial state.
type Factory func() Spec

// Error codes for ApplyError.
const (
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeBadArity         = "BAD_ARITY"
	CodeBadArgument      = "BAD_ARGUMENT"
	CodeUnknownSpec      = "UNKNOWN_SPEC"
)

// ApplyError reports an operation the specification cannot apply.
type ApplyError struct {
	Code    string
	Spec    string
	Op      string
	Message string
}

func (e *ApplyError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Spec, e.Message)
	}
	return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Spec, e.Op, e.Message)
}

// IsApplyError reports whether err wraps an ApplyError.
func IsApplyError(err error) bool {
	var ae *ApplyError
	return errors.As(err, &ae)
}

func unknownOp(spec, op string) error {
	return &ApplyError{Code: CodeUnknownOperation, Spec: spec, Op: op, Message: "no such operation"}
}

func arity(spec, op string, args []ir.IRValue, n int) error {
	if len(args) != n {
		return &ApplyError{
			Code:    CodeBadArity,
			Spec:    spec,
			Op:      op,
			Message: fmt.Sprintf("want %d argument(s), got %d", n, len(args)),
		}
	}
	return nil
}

func intArg(spec, op string, v ir.IRValue) (int64, error) {
	n, ok := v.(ir.IRInt)
	if !ok {
		return 0, &ApplyError{
			Code:    CodeBadArgument,
			Spec:    spec,
			Op:      op,
			Message: fmt.Sprintf("want int argument, got %s", ir.Format(v)),
		}
	}
	return int64(n), nil
}
