package seqspec

import (
	"slices"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Stack is the sequential LIFO stack.
//
//	push(v) -> void
//	pop()   -> top value, or null when empty
//	peek()  -> top value, or null when empty
//	size()  -> int
type Stack struct {
	items []ir.IRValue
}

// NewStack returns an empty stack specification.
func NewStack() Spec {
	return &Stack{}
}

func (s *Stack) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	switch op {
	case "push":
		if err := arity("stack", op, args, 1); err != nil {
			return execution.Outcome{}, err
		}
		s.items = append(s.items, args[0])
		return execution.Void(), nil
	case "pop":
		if err := arity("stack", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		if len(s.items) == 0 {
			return execution.Null(), nil
		}
		top := s.items[len(s.items)-1]
		s.items = s.items[:len(s.items)-1]
		return execution.Value(top), nil
	case "peek":
		if err := arity("stack", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		if len(s.items) == 0 {
			return execution.Null(), nil
		}
		return execution.Value(s.items[len(s.items)-1]), nil
	case "size":
		if err := arity("stack", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		return execution.Int(int64(len(s.items))), nil
	default:
		return execution.Outcome{}, unknownOp("stack", op)
	}
}

// Snapshot lists the items bottom to top.
func (s *Stack) Snapshot() ir.IRValue {
	return ir.IRArray(slices.Clone(s.items))
}

func (s *Stack) Clone() Spec {
	return &Stack{items: slices.Clone(s.items)}
}
