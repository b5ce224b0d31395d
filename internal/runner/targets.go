package runner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
)

// Target is the system under test. Invoke runs one actor and returns its
// outcome; a returned error is recorded as an exception outcome.
type Target interface {
	Invoke(ctx context.Context, a scenario.Actor) (execution.Outcome, error)
}

// TargetFactory builds a fresh target whose durable state lives in r.
type TargetFactory func(r *nvm.Region) Target

// TargetInfo describes a built-in target.
type TargetInfo struct {
	Name        string
	Description string

	// Spec names the sequential specification the target implements.
	Spec string

	New TargetFactory
}

var targets = map[string]TargetInfo{
	"durable-stack": {
		Name:        "durable-stack",
		Description: "lock-free stack that flushes its head after every update",
		Spec:        "stack",
		New:         func(r *nvm.Region) Target { return &stackTarget{stack: nvm.NewStack[ir.IRValue](r)} },
	},
	"volatile-stack": {
		Name:        "volatile-stack",
		Description: "the same stack without flushes; completed pushes can vanish at a crash",
		Spec:        "stack",
		New: func(r *nvm.Region) Target {
			return &stackTarget{stack: nvm.NewStack[ir.IRValue](r, nvm.WithoutFlush())}
		},
	},
	"channel": {
		Name:        "channel",
		Description: "unbounded channel whose receive parks until a send arrives",
		Spec:        "channel",
		New:         func(*nvm.Region) Target { return &channelTarget{} },
	},
}

// TargetNames lists the built-in targets, sorted.
func TargetNames() []string {
	names := maps.Keys(targets)
	slices.Sort(names)
	return names
}

// LookupTarget returns a built-in target by name.
func LookupTarget(name string) (TargetInfo, error) {
	info, ok := targets[name]
	if !ok {
		return TargetInfo{}, fmt.Errorf("unknown target %q (available: %v)", name, TargetNames())
	}
	return info, nil
}

func unsupported() error {
	return &Exception{Class: "UnsupportedOperationException"}
}

type stackTarget struct {
	stack *nvm.Stack[ir.IRValue]
}

func (s *stackTarget) Invoke(_ context.Context, a scenario.Actor) (execution.Outcome, error) {
	switch {
	case a.Name == "push" && len(a.Args) == 1:
		s.stack.Push(a.Args[0])
		return execution.Void(), nil
	case a.Name == "pop" && len(a.Args) == 0:
		v, ok := s.stack.Pop()
		if !ok {
			return execution.Null(), nil
		}
		return execution.Value(v), nil
	case a.Name == "size" && len(a.Args) == 0:
		return execution.Int(int64(s.stack.Len())), nil
	default:
		return execution.Outcome{}, unsupported()
	}
}

// channelTarget hands values from send to receive. A receive on an empty
// channel parks until a send picks it.
type channelTarget struct {
	mu      sync.Mutex
	buffer  []ir.IRValue
	waiting []*receiver
}

type receiver struct {
	ticket *Ticket
	value  ir.IRValue
}

func (c *channelTarget) Invoke(ctx context.Context, a scenario.Actor) (execution.Outcome, error) {
	switch {
	case a.Name == "send" && len(a.Args) == 1:
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.waiting) > 0 {
			r := c.waiting[0]
			c.waiting = c.waiting[1:]
			r.value = a.Args[0]
			r.ticket.Unpark()
			return execution.Void(), nil
		}
		c.buffer = append(c.buffer, a.Args[0])
		return execution.Void(), nil

	case a.Name == "receive" && len(a.Args) == 0:
		c.mu.Lock()
		if len(c.buffer) > 0 {
			v := c.buffer[0]
			c.buffer = c.buffer[1:]
			c.mu.Unlock()
			return execution.Value(v), nil
		}
		r := &receiver{ticket: Park(ctx)}
		c.waiting = append(c.waiting, r)
		c.mu.Unlock()

		if err := r.ticket.Wait(); err != nil {
			return execution.Suspended(), err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return execution.Value(r.value), nil

	default:
		return execution.Outcome{}, unsupported()
	}
}
