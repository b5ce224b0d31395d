package scenario

import (
	"fmt"

	"github.com/roach88/durlin/internal/ir"
)

// Phase is one of the three ordered scenario phases.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseParallel Phase = "parallel"
	PhasePost     Phase = "post"
)

// Phases lists the phases in execution order.
var Phases = []Phase{PhaseInit, PhaseParallel, PhasePost}

// Valid reports whether p names a known phase.
func (p Phase) Valid() bool {
	return p == PhaseInit || p == PhaseParallel || p == PhasePost
}

// Order returns the phase's position in execution order, or -1.
func (p Phase) Order() int {
	for i, q := range Phases {
		if p == q {
			return i
		}
	}
	return -1
}

// ActorRef locates one actor inside a scenario.
// Thread is always 0 for the init and post phases.
type ActorRef struct {
	Phase  Phase `json:"phase" yaml:"phase"`
	Thread int   `json:"thread" yaml:"thread"`
	Index  int   `json:"index" yaml:"index"`
}

// String renders the reference as "init#0", "t1#2" or "post#0".
func (r ActorRef) String() string {
	if r.Phase == PhaseParallel {
		return fmt.Sprintf("t%d#%d", r.Thread, r.Index)
	}
	return fmt.Sprintf("%s#%d", r.Phase, r.Index)
}

// Scenario is the init/parallel/post plan of actors that defines one test run.
//
// A Scenario must not be modified after construction; strategies build a
// fresh one per run attempt.
type Scenario struct {
	// Name identifies the scenario in reports and the run history.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description is free text, excluded from the content hash.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Spec names the sequential specification to verify against.
	Spec string `yaml:"spec,omitempty" json:"spec,omitempty"`

	// Init runs on a single thread before any concurrency.
	Init []Actor `yaml:"init,omitempty" json:"init,omitempty"`

	// Parallel holds one actor sequence per thread.
	Parallel [][]Actor `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Post runs on a single thread after every parallel thread finishes.
	Post []Actor `yaml:"post,omitempty" json:"post,omitempty"`
}

// New builds and validates a scenario.
func New(name string, init []Actor, parallel [][]Actor, post []Actor) (*Scenario, error) {
	s := &Scenario{Name: name, Init: init, Parallel: parallel, Post: post}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is like New but panics on an invalid scenario.
// Use only in tests or with literal scenarios.
func MustNew(name string, init []Actor, parallel [][]Actor, post []Actor) *Scenario {
	s, err := New(name, init, parallel, post)
	if err != nil {
		panic(err)
	}
	return s
}

// Threads returns the number of parallel threads.
func (s *Scenario) Threads() int {
	return len(s.Parallel)
}

// Lanes returns the actor sequences of a phase: one for init and post, one
// per thread for parallel.
func (s *Scenario) Lanes(p Phase) [][]Actor {
	switch p {
	case PhaseInit:
		return [][]Actor{s.Init}
	case PhaseParallel:
		return s.Parallel
	case PhasePost:
		return [][]Actor{s.Post}
	default:
		return nil
	}
}

// Actor returns the actor at ref.
func (s *Scenario) Actor(ref ActorRef) (Actor, bool) {
	lanes := s.Lanes(ref.Phase)
	if ref.Thread < 0 || ref.Thread >= len(lanes) {
		return Actor{}, false
	}
	lane := lanes[ref.Thread]
	if ref.Index < 0 || ref.Index >= len(lane) {
		return Actor{}, false
	}
	return lane[ref.Index], true
}

// Size returns the total number of actors.
func (s *Scenario) Size() int {
	n := len(s.Init) + len(s.Post)
	for _, thread := range s.Parallel {
		n += len(thread)
	}
	return n
}

// Validate enforces construction invariants.
//
// A suspendable actor must not appear in init, and post must be empty when
// any suspendable actor exists elsewhere. Violations are fatal: the
// scenario must be fixed where it was generated.
func (s *Scenario) Validate() error {
	for _, p := range Phases {
		for t, lane := range s.Lanes(p) {
			for i, a := range lane {
				if !operationRe.MatchString(a.Name) {
					return invariantf(ActorRef{Phase: p, Thread: t, Index: i}, "invalid operation name %q", a.Name)
				}
			}
		}
	}

	for i, a := range s.Init {
		if a.Suspendable {
			return invariantf(ActorRef{Phase: PhaseInit, Index: i},
				"suspendable actor %s in init phase", a)
		}
	}

	if len(s.Post) > 0 && HasSuspendableActors(s) {
		return invariantf(ActorRef{Phase: PhasePost},
			"post phase must be empty when the scenario has suspendable actors")
	}
	return nil
}

// HasSuspendableActors reports whether any parallel or post actor is
// suspendable. Init is not considered.
func HasSuspendableActors(s *Scenario) bool {
	for _, thread := range s.Parallel {
		for _, a := range thread {
			if a.Suspendable {
				return true
			}
		}
	}
	for _, a := range s.Post {
		if a.Suspendable {
			return true
		}
	}
	return false
}

// ToIR returns the scenario's content as a canonical IR object.
// Description and Spec are presentation details and are left out.
func (s *Scenario) ToIR() ir.IRObject {
	lane := func(actors []Actor) ir.IRArray {
		arr := make(ir.IRArray, len(actors))
		for i, a := range actors {
			arr[i] = a.ToIR()
		}
		return arr
	}

	parallel := make(ir.IRArray, len(s.Parallel))
	for t, thread := range s.Parallel {
		parallel[t] = lane(thread)
	}

	return ir.IRObject{
		"name":     ir.IRString(s.Name),
		"init":     lane(s.Init),
		"parallel": parallel,
		"post":     lane(s.Post),
	}
}

// Hash returns the scenario's content hash.
func (s *Scenario) Hash() (string, error) {
	return ir.Hash(ir.DomainScenario, s.ToIR())
}

// String renders the scenario for diagnostics.
func (s *Scenario) String() string {
	return Render(s)
}
