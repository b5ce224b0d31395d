package verifier

import (
	"fmt"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/scenario"
)

// StepKind classifies a step of a linearization.
type StepKind string

const (
	// StepActor applies an actor to the reference state.
	StepActor StepKind = "actor"

	// StepForget drops an interrupted actor's effect.
	StepForget StepKind = "forget"

	// StepCrash fires a recorded crash event.
	StepCrash StepKind = "crash"
)

// Step is one element of a linearization.
type Step struct {
	Kind StepKind

	// Ref and Actor identify the actor of StepActor and StepForget steps.
	Ref   scenario.ActorRef
	Actor scenario.Actor

	// Recorded is the outcome from the run; Expected is the specification's.
	Recorded execution.Outcome
	Expected execution.Outcome

	// Crash indexes the result's crash events for StepCrash, and Event is
	// that crash event.
	Crash int
	Event execution.CrashEvent

	// Revert is the buffered-window position the state fell back to at a
	// crash, or -1.
	Revert int
}

func (s Step) String() string {
	switch s.Kind {
	case StepCrash:
		if s.Revert >= 0 {
			return fmt.Sprintf("crash#%d revert=%d", s.Crash, s.Revert)
		}
		return fmt.Sprintf("crash#%d", s.Crash)
	case StepForget:
		return fmt.Sprintf("%s %s forgotten", s.Ref, s.Actor)
	default:
		return fmt.Sprintf("%s %s: %s", s.Ref, s.Actor, s.Recorded)
	}
}

// path is a parent-linked list of steps shared between search nodes.
type path struct {
	parent *path
	step   Step
	depth  int
}

func (p *path) push(s Step) *path {
	d := 1
	if p != nil {
		d = p.depth + 1
	}
	return &path{parent: p, step: s, depth: d}
}

func (p *path) len() int {
	if p == nil {
		return 0
	}
	return p.depth
}

func (p *path) steps() []Step {
	out := make([]Step, p.len())
	for q := p; q != nil; q = q.parent {
		out[q.depth-1] = q.step
	}
	return out
}
