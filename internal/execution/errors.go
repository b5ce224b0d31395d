package execution

import (
	"errors"
	"fmt"
)

// CodeShapeMismatch: a result does not describe a run of the given scenario.
const CodeShapeMismatch = "RESULT_SHAPE_MISMATCH"

// ShapeError reports a result that cannot be checked against its scenario.
// It is a harness error, never a verification failure.
type ShapeError struct {
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("[%s] %s", CodeShapeMismatch, e.Message)
}

func shapef(format string, args ...any) *ShapeError {
	return &ShapeError{Message: fmt.Sprintf(format, args...)}
}

// IsShapeError reports whether err wraps a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
