// Package runner is a deterministic reference Strategy. It drives a
// scenario against a target one actor at a time, following a Schedule,
// injects crashes at chosen program points and records an
// execution.Result for the verifier.
//
// Every lane runs on its own goroutine, but the coordinator hands out one
// actor at a time and waits for the lane to report Completed, Blocked or
// Crashed, so a schedule always replays the same interleaving.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
)

// DefaultStallTimeout bounds how long an actor may run without completing
// or parking before its lane counts as blocked.
const DefaultStallTimeout = 2 * time.Second

var (
	// ErrCrashPointNotReached: a scheduled crash never fired.
	ErrCrashPointNotReached = errors.New("runner: crash point not reached")

	// ErrCrashWhileBlocked: a crash was scheduled while a lane was parked
	// or stalled.
	ErrCrashWhileBlocked = errors.New("runner: crash while a lane is blocked")
)

type options struct {
	stall  time.Duration
	clock  Clock
	logger *slog.Logger
	policy nvm.Policy
}

// Option configures Run.
type Option func(*options)

// WithStallTimeout overrides DefaultStallTimeout.
func WithStallTimeout(d time.Duration) Option {
	return func(o *options) { o.stall = d }
}

// WithClock sets the clock used for call/return stamps.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPolicy rejects schedules whose crash modes the policy does not allow.
func WithPolicy(p nvm.Policy) Option {
	return func(o *options) { o.policy = p }
}

// coordinator holds the state of one Run.
type coordinator struct {
	sc     *scenario.Scenario
	sched  Schedule
	points []CrashPoint
	region *nvm.Region
	res    *execution.Result
	opts   options
	probe  *probe
}

// probe counts instrumentation points while it is armed and panics with
// nvm.ErrInjectedCrash at the target count. A stalled lane may still hit
// it after the coordinator has moved on, so it is locked.
type probe struct {
	mu     sync.Mutex
	armed  bool
	target int
	hits   int
}

func (p *probe) arm(target int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed, p.target, p.hits = true, target, 0
}

func (p *probe) disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = false
}

func (p *probe) hit(nvm.Point) {
	p.mu.Lock()
	fire := false
	if p.armed {
		p.hits++
		if p.hits == p.target {
			p.armed = false
			fire = true
		}
	}
	p.mu.Unlock()
	if fire {
		panic(nvm.ErrInjectedCrash)
	}
}

// Run executes sc against a fresh target following sched.
//
// The result records every actor's outcome, the crashes that fired and
// logical call/return stamps. A run in which a blocked lane can never
// continue is returned with Hung set: blocked and unstarted actors keep
// the suspended outcome and post is skipped.
func Run(ctx context.Context, sc *scenario.Scenario, newTarget TargetFactory, sched Schedule, opts ...Option) (*execution.Result, error) {
	o := options{stall: DefaultStallTimeout, clock: NewLogicalClock(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	points, err := sched.validate(sc, o.policy)
	if err != nil {
		return nil, err
	}

	region := nvm.NewRegion()
	c := &coordinator{
		sc:     sc,
		sched:  sched,
		points: points,
		region: region,
		res:    execution.NewResult(sc),
		opts:   o,
		probe:  &probe{},
	}
	c.res.Timing = newTiming(sc)
	region.SetProbe(c.probe.hit)

	target := newTarget(region)

	for _, p := range scenario.Phases {
		hung, err := c.runPhase(ctx, p, target)
		if err != nil {
			return nil, err
		}
		if hung {
			c.res.Hung = true
			o.logger.Info("run hung", "scenario", sc.Name, "phase", p, "hung_actors", len(c.res.HungActors()))
			break
		}
	}
	if len(c.points) > 0 && !c.res.Hung {
		return nil, fmt.Errorf("%w: %s step %d", ErrCrashPointNotReached, c.points[0].Phase, c.points[0].Step)
	}
	return c.res, nil
}

func newTiming(sc *scenario.Scenario) *execution.Timing {
	t := &execution.Timing{
		Init: make([]execution.Interval, len(sc.Init)),
		Post: make([]execution.Interval, len(sc.Post)),
	}
	for _, thread := range sc.Parallel {
		t.Parallel = append(t.Parallel, make([]execution.Interval, len(thread)))
	}
	return t
}

func (c *coordinator) interval(ref scenario.ActorRef) *execution.Interval {
	switch ref.Phase {
	case scenario.PhaseInit:
		return &c.res.Timing.Init[ref.Index]
	case scenario.PhaseParallel:
		return &c.res.Timing.Parallel[ref.Thread][ref.Index]
	default:
		return &c.res.Timing.Post[ref.Index]
	}
}

// runPhase runs every lane of p to completion. It reports whether the
// phase ended with a lane that can never continue.
func (c *coordinator) runPhase(ctx context.Context, p scenario.Phase, target Target) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	// Cancelling releases goroutines of lanes left blocked or stalled.
	defer cancel()

	actors := c.sc.Lanes(p)
	lanes := make([]*lane, len(actors))
	for t, a := range actors {
		lanes[t] = newLane(p, t, a)
		go lanes[t].loop(ctx, target)
	}

	var steps []int
	if p == scenario.PhaseParallel {
		steps = c.sched.Steps
	}

	step, last := 0, -1
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		next := pick(lanes, &steps, last)
		if next < 0 {
			break
		}
		if err := c.crashBefore(p, step, lanes); err != nil {
			return false, err
		}
		if err := c.run(ctx, lanes, lanes[next], p, step); err != nil {
			return false, err
		}
		// A stalled actor may still be running target code, so nothing
		// else is scheduled and no crash fires after it.
		if lanes[next].state == laneStalled {
			return true, nil
		}
		last = next
		step++
	}
	if err := c.crashBefore(p, step, lanes); err != nil {
		return false, err
	}

	for _, l := range lanes {
		if l.state == laneBlocked || l.state == laneStalled {
			return true, nil
		}
	}
	if len(c.points) > 0 && c.points[0].Phase == p {
		return false, fmt.Errorf("%w: %s step %d", ErrCrashPointNotReached, p, c.points[0].Step)
	}
	return false, nil
}

// pick returns the next lane to step: the next useful scheduled step, or
// round-robin after last once the steps run out. It returns -1 when no lane
// can make progress.
func pick(lanes []*lane, steps *[]int, last int) int {
	for len(*steps) > 0 {
		t := (*steps)[0]
		*steps = (*steps)[1:]
		if lanes[t].runnable() {
			return t
		}
	}
	for i := 1; i <= len(lanes); i++ {
		t := (last + i) % len(lanes)
		if lanes[t].runnable() {
			return t
		}
	}
	return -1
}

// crashBefore fires probe-less crash points scheduled before step.
func (c *coordinator) crashBefore(p scenario.Phase, step int, lanes []*lane) error {
	for len(c.points) > 0 {
		cp := c.points[0]
		if cp.Phase != p || cp.Step != step || cp.Probe != 0 {
			return nil
		}
		c.points = c.points[1:]
		if err := c.crash(cp, lanes); err != nil {
			return err
		}
	}
	return nil
}

// run executes one step on lane l: start its next actor or resume it.
func (c *coordinator) run(ctx context.Context, lanes []*lane, l *lane, p scenario.Phase, step int) error {
	var armed *CrashPoint
	if len(c.points) > 0 {
		if cp := c.points[0]; cp.Phase == p && cp.Step == step && cp.Probe > 0 {
			armed = &cp
			c.points = c.points[1:]
			c.probe.arm(cp.Probe)
		}
	}

	index := l.started
	if l.state == laneBlocked {
		index = l.started - 1
		l.state = laneIdle
		t := l.ticket
		l.ticket = nil
		t.wake()
	} else {
		c.interval(l.ref(index)).Call = c.opts.clock.Next()
		l.started++
		select {
		case l.cmds <- l.actors[index]:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	timer := time.NewTimer(c.opts.stall)
	defer timer.Stop()

	var st status
	select {
	case st = <-l.status:
	case <-timer.C:
		c.probe.disarm()
		c.opts.logger.Warn("actor stalled", "actor", l.ref(index), "timeout", c.opts.stall)
		l.state = laneStalled
		if armed != nil {
			return fmt.Errorf("%w: %s stalled before its probe", ErrCrashPointNotReached, l.ref(index))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	c.probe.disarm()

	ref := l.ref(index)
	switch st.kind {
	case statusBlocked:
		l.state = laneBlocked
		l.ticket = st.ticket
		if armed != nil {
			return fmt.Errorf("%w: %s parked before its probe", ErrCrashPointNotReached, ref)
		}
		return nil

	case statusCrashed:
		if armed == nil {
			return fmt.Errorf("runner: %s crashed without a scheduled crash point", ref)
		}
		c.res.Set(ref, st.outcome)
		c.interval(ref).Return = c.opts.clock.Next()
		c.finish(l)
		return c.crash(*armed, lanes)

	default:
		c.res.Set(ref, st.outcome)
		c.interval(ref).Return = c.opts.clock.Next()
		c.finish(l)
		if armed != nil {
			return fmt.Errorf("%w: %s hit fewer than %d probe points", ErrCrashPointNotReached, ref, armed.Probe)
		}
		return nil
	}
}

func (c *coordinator) finish(l *lane) {
	if l.started >= len(l.actors) {
		l.state = laneDone
	} else {
		l.state = laneIdle
	}
}

// crash crashes and recovers the region and records the event. The cut is
// the number of actors each lane has started.
func (c *coordinator) crash(cp CrashPoint, lanes []*lane) error {
	cut := make([]int, len(lanes))
	for t, l := range lanes {
		if l.state == laneBlocked || l.state == laneStalled {
			return fmt.Errorf("%w: %s", ErrCrashWhileBlocked, l.ref(l.started-1))
		}
		cut[t] = l.started
	}

	report := c.region.Crash(cp.Mode)
	c.region.Recover()
	c.res.Crashes = append(c.res.Crashes, execution.CrashEvent{
		Phase:      cp.Phase,
		Cut:        cut,
		DirtyCells: report.Dirty,
		LostCells:  report.Lost,
	})
	c.opts.logger.Debug("crash injected",
		"phase", cp.Phase,
		"step", cp.Step,
		"probe", cp.Probe,
		"mode", cp.Mode,
		"dirty", report.Dirty,
		"lost", report.Lost)
	return nil
}
