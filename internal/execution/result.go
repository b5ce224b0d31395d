package execution

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/durlin/internal/ir"
	"github.com/roach88/durlin/internal/scenario"
)

// Result holds the recorded outcome of every actor of one run, grouped by
// phase and thread in each thread's real-time order.
type Result struct {
	Init     []Outcome   `yaml:"init,omitempty" json:"init,omitempty"`
	Parallel [][]Outcome `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Post     []Outcome   `yaml:"post,omitempty" json:"post,omitempty"`

	// Crashes lists crash events in the order they fired.
	Crashes []CrashEvent `yaml:"crashes,omitempty" json:"crashes,omitempty"`

	// Hung is set when a suspended actor was never resumed. A hung result
	// is reported as such and never verified.
	Hung bool `yaml:"hung,omitempty" json:"hung,omitempty"`

	// Timing optionally records logical call/return stamps per actor.
	Timing *Timing `yaml:"timing,omitempty" json:"timing,omitempty"`
}

// CrashEvent records one simulated crash and recovery.
type CrashEvent struct {
	Phase scenario.Phase `yaml:"phase" json:"phase"`

	// Cut holds, per lane of Phase, the number of actors that started
	// before the crash. Actors at index >= Cut[t] started after recovery.
	Cut []int `yaml:"cut" json:"cut"`

	// DirtyCells names the durable cells that were unflushed at the crash.
	DirtyCells []string `yaml:"dirty_cells,omitempty" json:"dirty_cells,omitempty"`

	// LostCells names the dirty cells that reverted to their persisted value.
	LostCells []string `yaml:"lost_cells,omitempty" json:"lost_cells,omitempty"`
}

// Interval is a pair of logical timestamps around one actor.
type Interval struct {
	Call   int64 `yaml:"call" json:"call"`
	Return int64 `yaml:"return" json:"return"`
}

// Timing mirrors the result layout with an Interval per actor.
type Timing struct {
	Init     []Interval   `yaml:"init,omitempty" json:"init,omitempty"`
	Parallel [][]Interval `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Post     []Interval   `yaml:"post,omitempty" json:"post,omitempty"`
}

// NewResult allocates a result shaped like the scenario. Every slot starts
// as Suspended, the outcome of an actor that never returned.
func NewResult(s *scenario.Scenario) *Result {
	fill := func(n int) []Outcome {
		out := make([]Outcome, n)
		for i := range out {
			out[i] = Suspended()
		}
		return out
	}
	r := &Result{
		Init:     fill(len(s.Init)),
		Parallel: make([][]Outcome, len(s.Parallel)),
		Post:     fill(len(s.Post)),
	}
	for t, thread := range s.Parallel {
		r.Parallel[t] = fill(len(thread))
	}
	return r
}

// Lanes returns the outcome sequences of a phase, matching Scenario.Lanes.
func (r *Result) Lanes(p scenario.Phase) [][]Outcome {
	switch p {
	case scenario.PhaseInit:
		return [][]Outcome{r.Init}
	case scenario.PhaseParallel:
		return r.Parallel
	case scenario.PhasePost:
		return [][]Outcome{r.Post}
	default:
		return nil
	}
}

// At returns the outcome recorded for ref.
func (r *Result) At(ref scenario.ActorRef) (Outcome, bool) {
	lanes := r.Lanes(ref.Phase)
	if ref.Thread < 0 || ref.Thread >= len(lanes) {
		return Outcome{}, false
	}
	lane := lanes[ref.Thread]
	if ref.Index < 0 || ref.Index >= len(lane) {
		return Outcome{}, false
	}
	return lane[ref.Index], true
}

// Set records the outcome for ref. It panics on an out-of-range ref.
func (r *Result) Set(ref scenario.ActorRef, o Outcome) {
	r.Lanes(ref.Phase)[ref.Thread][ref.Index] = o
}

// HungActors lists the actors recorded without a result.
func (r *Result) HungActors() []scenario.ActorRef {
	var refs []scenario.ActorRef
	for _, p := range scenario.Phases {
		for t, lane := range r.Lanes(p) {
			for i, o := range lane {
				if o.Kind == KindNoResult {
					refs = append(refs, scenario.ActorRef{Phase: p, Thread: t, Index: i})
				}
			}
		}
	}
	return refs
}

// CheckShape verifies that the result describes a run of s: lane counts and
// lengths match, every outcome is set, only a hung run leaves actors
// suspended, and crash events are well formed.
//
// Crash events must be ordered by phase with non-decreasing cuts inside a
// phase, and every Crashed outcome must sit immediately before the cut of
// the crash that interrupted it.
func (r *Result) CheckShape(s *scenario.Scenario) error {
	for _, p := range scenario.Phases {
		want := s.Lanes(p)
		got := r.Lanes(p)
		if len(want) != len(got) {
			return shapef("phase %s: result has %d lanes, scenario has %d", p, len(got), len(want))
		}
		for t := range want {
			if len(got[t]) != len(want[t]) {
				return shapef("phase %s lane %d: result has %d outcomes, scenario has %d actors",
					p, t, len(got[t]), len(want[t]))
			}
			suspended := false
			for i, o := range got[t] {
				ref := scenario.ActorRef{Phase: p, Thread: t, Index: i}
				if o.Kind == "" {
					return shapef("%s: outcome not set", ref)
				}
				// Every suspended actor of a run that did not hang was resumed.
				if o.Kind == KindNoResult && !r.Hung {
					return shapef("%s: suspended without a result in a run that did not hang", ref)
				}
				// A lane stops at its first suspended actor.
				if suspended && o.Kind != KindNoResult {
					return shapef("%s: %s recorded after a suspended actor on the same lane", ref, o)
				}
				suspended = suspended || o.Kind == KindNoResult
			}
		}
	}

	prev := map[scenario.Phase][]int{}
	lastOrder := -1
	for k, c := range r.Crashes {
		if !c.Phase.Valid() {
			return shapef("crash %d: unknown phase %q", k, c.Phase)
		}
		if c.Phase.Order() < lastOrder {
			return shapef("crash %d: phase %s after a later phase", k, c.Phase)
		}
		lastOrder = c.Phase.Order()

		lanes := s.Lanes(c.Phase)
		if len(c.Cut) != len(lanes) {
			return shapef("crash %d: cut has %d entries, phase %s has %d lanes", k, len(c.Cut), c.Phase, len(lanes))
		}
		for t, cut := range c.Cut {
			if cut < 0 || cut > len(lanes[t]) {
				return shapef("crash %d: cut[%d]=%d out of range", k, t, cut)
			}
			if p := prev[c.Phase]; p != nil && cut < p[t] {
				return shapef("crash %d: cut[%d]=%d precedes earlier crash", k, t, cut)
			}
		}
		prev[c.Phase] = slices.Clone(c.Cut)
	}

	claimed := make(map[scenario.ActorRef]bool)
	for _, refs := range r.Interrupted() {
		for _, ref := range refs {
			claimed[ref] = true
		}
	}
	for _, p := range scenario.Phases {
		for t, lane := range r.Lanes(p) {
			for i, o := range lane {
				ref := scenario.ActorRef{Phase: p, Thread: t, Index: i}
				if o.Kind == KindCrashed && !claimed[ref] {
					return shapef("%s: crashed outcome without a matching crash event", ref)
				}
			}
		}
	}
	return nil
}

// Interrupted returns, per crash event, the actors it interrupted. An actor
// is interrupted by crash k when it is recorded as Crashed, sits right before
// crash k's cut on its lane, and started after the previous crash of the
// same phase.
func (r *Result) Interrupted() [][]scenario.ActorRef {
	out := make([][]scenario.ActorRef, len(r.Crashes))
	prev := map[scenario.Phase][]int{}
	for k, c := range r.Crashes {
		p := prev[c.Phase]
		for t, cut := range c.Cut {
			if cut == 0 || (p != nil && t < len(p) && p[t] >= cut) {
				continue
			}
			ref := scenario.ActorRef{Phase: c.Phase, Thread: t, Index: cut - 1}
			if o, ok := r.At(ref); ok && o.Kind == KindCrashed {
				out[k] = append(out[k], ref)
			}
		}
		prev[c.Phase] = c.Cut
	}
	return out
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	out := &Result{
		Init: slices.Clone(r.Init),
		Post: slices.Clone(r.Post),
		Hung: r.Hung,
	}
	for _, lane := range r.Parallel {
		out.Parallel = append(out.Parallel, slices.Clone(lane))
	}
	for _, c := range r.Crashes {
		out.Crashes = append(out.Crashes, CrashEvent{
			Phase:      c.Phase,
			Cut:        slices.Clone(c.Cut),
			DirtyCells: slices.Clone(c.DirtyCells),
			LostCells:  slices.Clone(c.LostCells),
		})
	}
	if r.Timing != nil {
		t := &Timing{Init: slices.Clone(r.Timing.Init), Post: slices.Clone(r.Timing.Post)}
		for _, lane := range r.Timing.Parallel {
			t.Parallel = append(t.Parallel, slices.Clone(lane))
		}
		out.Timing = t
	}
	return out
}

// ToIR returns the outcomes and crash events as a canonical IR object.
// Timing is left out; it does not change what the run observed.
func (r *Result) ToIR() ir.IRObject {
	lane := func(outcomes []Outcome) ir.IRArray {
		arr := make(ir.IRArray, len(outcomes))
		for i, o := range outcomes {
			arr[i] = o.ToIR()
		}
		return arr
	}
	parallel := make(ir.IRArray, len(r.Parallel))
	for t, outcomes := range r.Parallel {
		parallel[t] = lane(outcomes)
	}
	crashes := make(ir.IRArray, len(r.Crashes))
	for k, c := range r.Crashes {
		crashes[k] = c.ToIR()
	}
	return ir.IRObject{
		"init":     lane(r.Init),
		"parallel": parallel,
		"post":     lane(r.Post),
		"crashes":  crashes,
		"hung":     ir.IRBool(r.Hung),
	}
}

// ToIR returns the crash event as a canonical IR object.
func (c CrashEvent) ToIR() ir.IRObject {
	cut := make(ir.IRArray, len(c.Cut))
	for i, n := range c.Cut {
		cut[i] = ir.IRInt(n)
	}
	strs := func(ss []string) ir.IRArray {
		arr := make(ir.IRArray, len(ss))
		for i, s := range ss {
			arr[i] = ir.IRString(s)
		}
		return arr
	}
	return ir.IRObject{
		"phase":       ir.IRString(c.Phase),
		"cut":         cut,
		"dirty_cells": strs(c.DirtyCells),
		"lost_cells":  strs(c.LostCells),
	}
}

// String renders the crash event on one line.
func (c CrashEvent) String() string {
	cuts := make([]string, len(c.Cut))
	for i, n := range c.Cut {
		cuts[i] = fmt.Sprint(n)
	}
	s := fmt.Sprintf("crash in %s at cut [%s]", c.Phase, strings.Join(cuts, ","))
	if len(c.DirtyCells) > 0 {
		s += fmt.Sprintf(" dirty=%s", strings.Join(c.DirtyCells, ","))
	}
	if len(c.LostCells) > 0 {
		s += fmt.Sprintf(" lost=%s", strings.Join(c.LostCells, ","))
	}
	return s
}
