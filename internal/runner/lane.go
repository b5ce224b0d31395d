package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
)

type laneState int

const (
	laneIdle laneState = iota
	laneBlocked
	laneStalled
	laneDone
)

type statusKind int

const (
	statusCompleted statusKind = iota
	statusBlocked
	statusCrashed
)

// status is what a lane reports back after each command.
type status struct {
	kind    statusKind
	outcome execution.Outcome
	ticket  *Ticket
}

// lane executes the actors of one thread, one command at a time.
type lane struct {
	phase  scenario.Phase
	thread int
	actors []scenario.Actor

	// Owned by the coordinator.
	state   laneState
	started int
	ticket  *Ticket

	cmds   chan scenario.Actor
	status chan status
}

func newLane(p scenario.Phase, thread int, actors []scenario.Actor) *lane {
	l := &lane{
		phase:  p,
		thread: thread,
		actors: actors,
		cmds:   make(chan scenario.Actor),
		status: make(chan status, 1),
	}
	if len(actors) == 0 {
		l.state = laneDone
	}
	return l
}

func (l *lane) ref(index int) scenario.ActorRef {
	return scenario.ActorRef{Phase: l.phase, Thread: l.thread, Index: index}
}

// runnable reports whether scheduling the lane makes progress.
func (l *lane) runnable() bool {
	switch l.state {
	case laneIdle:
		return l.started < len(l.actors)
	case laneBlocked:
		return l.ticket.Runnable()
	default:
		return false
	}
}

// loop serves commands until ctx is done.
func (l *lane) loop(ctx context.Context, target Target) {
	ctx = context.WithValue(ctx, laneKey{}, l)
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-l.cmds:
			st := l.invoke(ctx, target, a)
			if err := l.report(ctx, st); err != nil {
				return
			}
		}
	}
}

func (l *lane) report(ctx context.Context, st status) error {
	select {
	case l.status <- st:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lane) invoke(ctx context.Context, target Target, a scenario.Actor) (st status) {
	defer func() {
		if v := recover(); v != nil {
			if err, ok := v.(error); ok && errors.Is(err, nvm.ErrInjectedCrash) {
				st = status{kind: statusCrashed, outcome: execution.Crashed()}
				return
			}
			st = status{kind: statusCompleted, outcome: execution.Exception("panic")}
		}
	}()

	out, err := target.Invoke(ctx, a)
	if err != nil {
		return status{kind: statusCompleted, outcome: execution.Exception(exceptionClass(err))}
	}
	return status{kind: statusCompleted, outcome: out}
}

// Exception is returned by a target to record exception(Class) for the
// actor. Any other error is recorded as exception(error).
type Exception struct {
	Class string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("exception(%s)", e.Class)
}

func exceptionClass(err error) string {
	var ex *Exception
	if errors.As(err, &ex) && ex.Class != "" {
		return ex.Class
	}
	return "error"
}
