package runner

import (
	"context"
	"sync/atomic"
)

type laneKey struct{}

// Ticket is a parked actor's handle. The actor calls Wait; another actor
// calls Unpark to make it runnable again.
type Ticket struct {
	ctx      context.Context
	lane     *lane
	unparked atomic.Bool
	resume   chan struct{}
}

// Park prepares to suspend the calling actor. Targets call it while they
// still hold whatever lock protects their wait queue, publish the ticket,
// release the lock and then Wait.
//
// Outside a Run, the ticket blocks on Wait until Unpark or ctx is done.
func Park(ctx context.Context) *Ticket {
	l, _ := ctx.Value(laneKey{}).(*lane)
	return &Ticket{ctx: ctx, lane: l, resume: make(chan struct{}, 1)}
}

// Wait suspends the actor. Under a Run the lane reports itself blocked and
// only continues when the coordinator schedules it after Unpark. Wait
// returns ctx.Err() when the run gives up on the actor.
func (t *Ticket) Wait() error {
	if t.lane != nil {
		if err := t.lane.report(t.ctx, status{kind: statusBlocked, ticket: t}); err != nil {
			return err
		}
	}
	select {
	case <-t.resume:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// Unpark makes the parked actor runnable.
func (t *Ticket) Unpark() {
	if t.unparked.Swap(true) {
		return
	}
	if t.lane == nil {
		t.resume <- struct{}{}
	}
}

// Runnable reports whether Unpark was called.
func (t *Ticket) Runnable() bool {
	return t.unparked.Load()
}

// wake resumes a ticket whose lane was scheduled again.
func (t *Ticket) wake() {
	select {
	case t.resume <- struct{}{}:
	default:
	}
}
