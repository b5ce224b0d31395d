package seqspec

import (
	"slices"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Queue is the sequential FIFO queue.
//
//	enqueue(v) -> void
//	dequeue()  -> head value, or null when empty
//	remove()   -> head value, or exception(NoSuchElementException) when empty
//	peek()     -> head value, or null when empty
type Queue struct {
	items []ir.IRValue
}

// NewQueue returns an empty queue specification.
func NewQueue() Spec {
	return &Queue{}
}

func (q *Queue) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	switch op {
	case "enqueue":
		if err := arity("queue", op, args, 1); err != nil {
			return execution.Outcome{}, err
		}
		q.items = append(q.items, args[0])
		return execution.Void(), nil
	case "dequeue", "remove":
		if err := arity("queue", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		if len(q.items) == 0 {
			if op == "remove" {
				return execution.Exception("NoSuchElementException"), nil
			}
			return execution.Null(), nil
		}
		head := q.items[0]
		q.items = q.items[1:]
		return execution.Value(head), nil
	case "peek":
		if err := arity("queue", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		if len(q.items) == 0 {
			return execution.Null(), nil
		}
		return execution.Value(q.items[0]), nil
	default:
		return execution.Outcome{}, unknownOp("queue", op)
	}
}

// Snapshot lists the items head first.
func (q *Queue) Snapshot() ir.IRValue {
	return ir.IRArray(slices.Clone(q.items))
}

func (q *Queue) Clone() Spec {
	return &Queue{items: slices.Clone(q.items)}
}
