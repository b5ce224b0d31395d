package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/seqspec"
)

// phase is one scenario phase with its actors and recorded outcomes.
type phase struct {
	name     scenario.Phase
	actors   [][]scenario.Actor
	outcomes [][]execution.Outcome
}

// snapshot is a reference state together with its hash.
type snapshot struct {
	state seqspec.Spec
	hash  string
}

// node is a point of the search: the frontier of consumed actors plus the
// reference state reached along path.
type node struct {
	phase   int
	cursors []int

	// crash indexes the next crash event to fire.
	crash int

	// lost counts interrupted actors forgotten since the previous crash.
	lost int

	snapshot

	// window holds every state reached since the previous crash, current
	// state last. Only the buffered policy keeps it.
	window []snapshot

	path *path
}

type search struct {
	phases   []phase
	crashes  []execution.CrashEvent
	policy   nvm.Policy
	workers  int
	budget   int64
	logger   *slog.Logger
	memo     memo
	wl       *worklist
	explored atomic.Int64

	mu    sync.Mutex
	found *node
	best  *failure
}

// failure is the best dead end seen so far.
type failure struct {
	path     *path
	mismatch *Mismatch
	depth    int
	key      string
}

func newSearch(sc *scenario.Scenario, res *execution.Result, policy nvm.Policy, o options) *search {
	s := &search{
		crashes: res.Crashes,
		policy:  policy,
		workers: o.workers,
		budget:  o.maxStates,
		logger:  o.logger,
		wl:      newWorklist(),
	}
	for _, p := range scenario.Phases {
		s.phases = append(s.phases, phase{name: p, actors: sc.Lanes(p), outcomes: res.Lanes(p)})
	}
	return s
}

func (s *search) run(ctx context.Context, factory seqspec.Factory) (*Report, error) {
	root := &node{cursors: make([]int, len(s.phases[0].actors))}
	root.state = factory()
	if err := s.rehash(root); err != nil {
		return nil, err
	}
	if s.policy.Buffered() {
		root.window = []snapshot{root.snapshot}
	}
	s.normalize(root)
	key, err := s.key(root)
	if err != nil {
		return nil, err
	}
	s.memo.visit(key)
	s.wl.push(root)

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, s.wl.close)
	defer stop()

	for i := 0; i < s.workers; i++ {
		g.Go(func() error { return s.work(gctx) })
	}
	err = g.Wait()

	stats := Stats{Explored: s.explored.Load(), MemoHits: s.memo.hits.Load()}
	if s.found != nil {
		return &Report{Verdict: Pass, Linearization: s.found.path.steps(), Stats: stats}, nil
	}
	if err != nil {
		if errors.Is(err, ErrStateBudgetExceeded) {
			s.logger.Warn("search aborted", "explored", stats.Explored, "budget", s.budget)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Report{Verdict: Fail, Counterexample: s.counterexample(), Stats: stats}, nil
}

func (s *search) work(ctx context.Context) error {
	for {
		n := s.wl.pop()
		if n == nil {
			return nil
		}
		err := s.expand(ctx, n)
		s.wl.done()
		if err != nil {
			s.wl.close()
			return err
		}
	}
}

func (s *search) expand(ctx context.Context, n *node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if count := s.explored.Add(1); s.budget > 0 && count > s.budget {
		return ErrStateBudgetExceeded
	}

	if n.phase == len(s.phases) {
		s.mu.Lock()
		if s.found == nil {
			s.found = n
		}
		s.mu.Unlock()
		s.wl.close()
		return nil
	}

	var children []*node
	var err error
	if c, pending := s.pendingCrash(n); pending && slices.Equal(n.cursors, c.Cut) {
		children, err = s.fireCrash(n)
	} else {
		children, err = s.advance(n)
	}
	if err != nil {
		return err
	}
	if len(children) == 0 {
		s.consider(n.path, nil, n.path.len())
		return nil
	}

	fresh := children[:0]
	for _, child := range children {
		s.normalize(child)
		key, err := s.key(child)
		if err != nil {
			return err
		}
		if s.memo.visit(key) {
			fresh = append(fresh, child)
		}
	}
	s.wl.push(fresh...)
	return nil
}

// pendingCrash returns the next crash event if it belongs to n's phase.
func (s *search) pendingCrash(n *node) (execution.CrashEvent, bool) {
	if n.crash >= len(s.crashes) || n.phase >= len(s.phases) {
		return execution.CrashEvent{}, false
	}
	c := s.crashes[n.crash]
	return c, c.Phase == s.phases[n.phase].name
}

// advance tries the next actor of every enabled lane, lowest lane first.
func (s *search) advance(n *node) ([]*node, error) {
	p := s.phases[n.phase]
	crash, pending := s.pendingCrash(n)

	var children []*node
	for t, lane := range p.actors {
		i := n.cursors[t]
		if i >= len(lane) || (pending && i >= crash.Cut[t]) {
			continue
		}
		ref := scenario.ActorRef{Phase: p.name, Thread: t, Index: i}
		a := lane[i]
		recorded := p.outcomes[t][i]

		state := n.state.Clone()
		got, err := state.Apply(a.Name, a.Args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}

		switch recorded.Kind {
		case execution.KindCrashed:
			// The crash hit mid-operation: its effect may have landed, with
			// the result never observed, or it may be forgotten.
			keep, err := s.child(n, state, t, i+1, Step{
				Kind: StepActor, Ref: ref, Actor: a, Recorded: recorded, Expected: got, Revert: -1,
			})
			if err != nil {
				return nil, err
			}
			children = append(children, keep)
			if s.mayForget(n) {
				forget := s.clone(n)
				forget.cursors[t] = i + 1
				forget.lost++
				forget.path = n.path.push(Step{Kind: StepForget, Ref: ref, Actor: a, Recorded: recorded, Revert: -1})
				children = append(children, forget)
			}

		default:
			step := Step{Kind: StepActor, Ref: ref, Actor: a, Recorded: recorded, Expected: got, Revert: -1}
			if !matches(recorded, got) {
				s.consider(n.path, &Mismatch{Ref: ref, Actor: a, Recorded: recorded, Expected: got}, n.path.len()+1)
				continue
			}
			child, err := s.child(n, state, t, i+1, step)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	}
	return children, nil
}

func (s *search) mayForget(n *node) bool {
	limit := s.policy.MaxLost()
	return limit < 0 || n.lost < limit
}

// child builds the node reached by applying an actor of lane t.
func (s *search) child(n *node, state seqspec.Spec, t, cursor int, step Step) (*node, error) {
	c := s.clone(n)
	c.state = state
	c.cursors[t] = cursor
	c.path = n.path.push(step)
	if err := s.rehash(c); err != nil {
		return nil, err
	}
	if c.window != nil {
		c.window = append(c.window, c.snapshot)
	}
	return c, nil
}

// fireCrash crosses the next crash event. Under the buffered policy the
// state may also fall back to any state of the window.
func (s *search) fireCrash(n *node) ([]*node, error) {
	type candidate struct {
		snapshot
		revert int
	}
	candidates := []candidate{{n.snapshot, -1}}
	if s.policy.Buffered() {
		for i := len(n.window) - 2; i >= 0; i-- {
			candidates = append(candidates, candidate{n.window[i], i})
		}
	}

	var children []*node
	for _, cand := range candidates {
		c := s.clone(n)
		c.snapshot = cand.snapshot
		if _, ok := c.state.(seqspec.Crasher); ok {
			c.state = c.state.Clone()
			c.state.(seqspec.Crasher).Crash()
			if err := s.rehash(c); err != nil {
				return nil, err
			}
		}
		c.crash++
		c.lost = 0
		if c.window != nil {
			c.window = []snapshot{c.snapshot}
		}
		c.path = n.path.push(Step{Kind: StepCrash, Crash: n.crash, Event: s.crashes[n.crash], Revert: cand.revert})
		children = append(children, c)
	}
	return children, nil
}

// normalize moves a node past every phase it has finished.
func (s *search) normalize(n *node) {
	for n.phase < len(s.phases) {
		p := s.phases[n.phase]
		for t, lane := range p.actors {
			if n.cursors[t] < len(lane) {
				return
			}
		}
		if _, pending := s.pendingCrash(n); pending {
			return
		}
		n.phase++
		if n.phase < len(s.phases) {
			n.cursors = make([]int, len(s.phases[n.phase].actors))
		} else {
			n.cursors = nil
		}
	}
}

func (s *search) clone(n *node) *node {
	c := *n
	c.cursors = slices.Clone(n.cursors)
	if n.window != nil {
		c.window = slices.Clone(n.window)
	}
	return &c
}

func (s *search) rehash(n *node) error {
	h, err := ir.StateHash(n.state.Snapshot())
	if err != nil {
		return fmt.Errorf("hashing reference state: %w", err)
	}
	n.hash = h
	return nil
}

// key identifies a node for memoization: two nodes with the same key have
// the same future.
func (s *search) key(n *node) (string, error) {
	cursors := make(ir.IRArray, len(n.cursors))
	for i, c := range n.cursors {
		cursors[i] = ir.IRInt(c)
	}
	frontier := ir.IRObject{
		"phase":   ir.IRInt(n.phase),
		"cursors": cursors,
		"crash":   ir.IRInt(n.crash),
		"lost":    ir.IRInt(n.lost),
	}
	if n.window != nil {
		window := make(ir.IRArray, len(n.window))
		for i, w := range n.window {
			window[i] = ir.IRString(w.hash)
		}
		frontier["window"] = window
	}
	return ir.FrontierKey(frontier, n.hash)
}

// consider records a dead end. The deepest one wins; among equally deep
// ones the lexicographically smallest rendering wins, so the choice does
// not depend on exploration order.
func (s *search) consider(p *path, mm *Mismatch, depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.best != nil && depth < s.best.depth {
		return
	}
	key := failureKey(p, mm)
	if s.best != nil && depth == s.best.depth && key >= s.best.key {
		return
	}
	s.best = &failure{path: p, mismatch: mm, depth: depth, key: key}
}

func failureKey(p *path, mm *Mismatch) string {
	var key string
	for _, st := range p.steps() {
		key += st.String() + "\n"
	}
	if mm != nil {
		key += mm.String()
	}
	return key
}
