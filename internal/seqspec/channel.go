package seqspec

import (
	"slices"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Channel is an unbounded buffered channel whose receive suspends when empty.
//
//	send(v)   -> void; hands v to a suspended receiver if there is one
//	receive() -> oldest buffered value, or suspended when empty
//
// A suspended receive stays registered as a waiter, so a later send is
// consumed by it rather than buffered.
type Channel struct {
	buffer  []ir.IRValue
	waiters int
}

// NewChannel returns an empty channel.
func NewChannel() Spec {
	return &Channel{}
}

func (c *Channel) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	switch op {
	case "send":
		if err := arity("channel", op, args, 1); err != nil {
			return execution.Outcome{}, err
		}
		if c.waiters > 0 {
			c.waiters--
			return execution.Void(), nil
		}
		c.buffer = append(c.buffer, args[0])
		return execution.Void(), nil
	case "receive":
		if err := arity("channel", op, args, 0); err != nil {
			return execution.Outcome{}, err
		}
		if len(c.buffer) == 0 {
			c.waiters++
			return execution.Suspended(), nil
		}
		head := c.buffer[0]
		c.buffer = c.buffer[1:]
		return execution.Value(head), nil
	default:
		return execution.Outcome{}, unknownOp("channel", op)
	}
}

func (c *Channel) Snapshot() ir.IRValue {
	return ir.IRObject{
		"buffer":  ir.IRArray(slices.Clone(c.buffer)),
		"waiters": ir.IRInt(c.waiters),
	}
}

func (c *Channel) Clone() Spec {
	return &Channel{buffer: slices.Clone(c.buffer), waiters: c.waiters}
}
