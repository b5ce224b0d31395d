package verifier

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/nvm"
	"github.com/roach88/durlin/internal/scenario"
)

// FailureKind classifies a failing verification.
type FailureKind string

const (
	// FailureMismatch: no linearization explains the recorded results.
	FailureMismatch FailureKind = "VerificationMismatch"

	// FailureCrashPolicy: the search got past a crash, but no forgetting
	// the recovery policy allows explains what was observed after it.
	FailureCrashPolicy FailureKind = "CrashPolicyViolation"
)

// Mismatch is a recorded outcome the specification disagrees with.
type Mismatch struct {
	Ref      scenario.ActorRef
	Actor    scenario.Actor
	Recorded execution.Outcome
	Expected execution.Outcome
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: recorded %s, expected %s", m.Ref, m.Actor, m.Recorded, m.Expected)
}

// Counterexample is the deepest partial linearization the search reached
// and, when there is one, the mismatch that stopped it.
type Counterexample struct {
	Kind     FailureKind
	Policy   nvm.Policy
	Path     []Step
	Mismatch *Mismatch

	// Crash is the last crash event on Path, and Cells the durable cells it
	// implicates: the ones it lost, or the ones that were dirty when nothing
	// was lost.
	Crash *execution.CrashEvent
	Cells []string
}

func (s *search) counterexample() *Counterexample {
	ce := &Counterexample{Kind: FailureMismatch, Policy: s.policy}
	if s.best == nil {
		return ce
	}
	ce.Path = s.best.path.steps()
	ce.Mismatch = s.best.mismatch
	for i := len(ce.Path) - 1; i >= 0; i-- {
		if ce.Path[i].Kind == StepCrash {
			ev := ce.Path[i].Event
			ce.Kind = FailureCrashPolicy
			ce.Crash = &ev
			ce.Cells = ev.LostCells
			if len(ce.Cells) == 0 {
				ce.Cells = ev.DirtyCells
			}
			break
		}
	}
	return ce
}

// String renders the counterexample as an aligned table.
func (c *Counterexample) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", c.Kind)
	if c.Policy != "" {
		fmt.Fprintf(&b, " under %s policy", c.Policy)
	}
	b.WriteString("\n")
	if len(c.Cells) > 0 {
		fmt.Fprintf(&b, "offending cells: %s\n", strings.Join(c.Cells, ", "))
	}

	wrt := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(wrt, "#\tref\tactor\trecorded\texpected")
	for i, st := range c.Path {
		switch st.Kind {
		case StepCrash:
			note := "-"
			if st.Revert >= 0 {
				note = fmt.Sprintf("revert to %d", st.Revert)
			}
			fmt.Fprintf(wrt, "%d\tcrash#%d\t%s\t-\t%s\n", i+1, st.Crash, st.Event, note)
		case StepForget:
			fmt.Fprintf(wrt, "%d\t%s\t%s\t%s\tforgotten\n", i+1, st.Ref, st.Actor, st.Recorded)
		default:
			fmt.Fprintf(wrt, "%d\t%s\t%s\t%s\t%s\n", i+1, st.Ref, st.Actor, st.Recorded, st.Expected)
		}
	}
	if m := c.Mismatch; m != nil {
		fmt.Fprintf(wrt, "!\t%s\t%s\t%s\t%s\n", m.Ref, m.Actor, m.Recorded, m.Expected)
	}
	wrt.Flush()
	return strings.TrimRight(b.String(), "\n")
}
