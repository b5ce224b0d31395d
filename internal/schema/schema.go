// Package schema validates durlin documents against embedded CUE definitions.
//
// Every scenario, result and schedule file passes through here before it is
// decoded into Go types, so structural mistakes are reported with CUE's
// positions instead of as half-decoded values.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed durlin.cue
var source string

// Kind names a top-level definition in the embedded schema.
type Kind string

const (
	KindScenario Kind = "#Scenario"
	KindResult   Kind = "#Result"
	KindSchedule Kind = "#Schedule"
)

// The CUE runtime is not safe for concurrent use; all access is serialized.
var (
	mu      sync.Mutex
	ctx     *cue.Context
	root    cue.Value
	rootErr error
	once    sync.Once
)

func definition(kind Kind) (cue.Value, error) {
	once.Do(func() {
		ctx = cuecontext.New()
		root = ctx.CompileString(source, cue.Filename("durlin.cue"))
		rootErr = root.Err()
	})
	if rootErr != nil {
		return cue.Value{}, fmt.Errorf("embedded schema: %w", rootErr)
	}
	def := root.LookupPath(cue.ParsePath(string(kind)))
	if !def.Exists() {
		return cue.Value{}, fmt.Errorf("embedded schema has no definition %s", kind)
	}
	return def, nil
}

// Validate checks decoded data (maps, slices and scalars as produced by
// yaml.v3 or encoding/json) against the named definition.
func Validate(kind Kind, data any) error {
	mu.Lock()
	defer mu.Unlock()

	def, err := definition(kind)
	if err != nil {
		return err
	}

	v := ctx.Encode(data)
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// Compile evaluates CUE source, unifies it with the named definition and
// exports the result as JSON.
func Compile(kind Kind, src []byte, filename string) ([]byte, error) {
	mu.Lock()
	defer mu.Unlock()

	def, err := definition(kind)
	if err != nil {
		return nil, err
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return data, nil
}

// Error is a schema violation with the source position CUE reported, if any.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// formatCUEError extracts position info from CUE errors.
// Only the first error is kept; CUE reports one root cause per disjunction.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	schemaErr := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		schemaErr.Pos = positions[0]
	}
	return schemaErr
}
