package seqspec

import (
	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Register is a single read/write cell, initially null.
//
//	write(v)  -> void
//	read()    -> value
//	cas(e, u) -> bool, true when the value equaled e and was replaced by u
type Register struct {
	value ir.IRValue
}

// NewRegister returns a register holding null.
func NewRegister() Spec {
	return &Register{value: ir.IRNull{}}
}

func (r *Register) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	switch op {
	case "write":
		if err := arity("register", op, args, 1); err != nil {
			return execution.Outcome{}, err
		}
		r.value = args[0]
		return execution.Void(), nil
	case "read":
		if err := arity("register", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		return execution.Value(r.value), nil
	case "cas":
		if err := arity("register", op, args, 2); err != nil {
			return execution.Outcome{}, err
		}
		if !ir.Equal(r.value, args[0]) {
			return execution.Bool(false), nil
		}
		r.value = args[1]
		return execution.Bool(true), nil
	default:
		return execution.Outcome{}, unknownOp("register", op)
	}
}

func (r *Register) Snapshot() ir.IRValue {
	return ir.IRObject{"value": r.value}
}

func (r *Register) Clone() Spec {
	return &Register{value: r.value}
}
