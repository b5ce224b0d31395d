package seqspec

import (
	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Counter is an integer counter starting at zero.
//
//	inc()  -> new value
//	add(d) -> new value
//	get()  -> value
type Counter struct {
	n int64
}

// NewCounter returns a counter at zero.
func NewCounter() Spec {
	return &Counter{}
}

func (c *Counter) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	switch op {
	case "inc":
		if err := arity("counter", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		c.n++
		return execution.Int(c.n), nil
	case "add":
		if err := arity("counter", op, args, 1); err != nil {
			return execution.Outcome{}, err
		}
		d, err := intArg("counter", op, args[0])
		if err != nil {
			return execution.Outcome{}, err
		}
		c.n += d
		return execution.Int(c.n), nil
	case "get":
		if err := arity("counter", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		return execution.Int(c.n), nil
	default:
		return execution.Outcome{}, unknownOp("counter", op)
	}
}

func (c *Counter) Snapshot() ir.IRValue {
	return ir.IRInt(c.n)
}

func (c *Counter) Clone() Spec {
	return &Counter{n: c.n}
}
