package execution

import (
	"strings"

	"github.com/roach88/durlin/internal/scenario"
)

// Render lays out a scenario with each actor's recorded outcome, in the
// same blocks and columns as scenario.Render. Crash events follow the
// table, one per line.
func Render(s *scenario.Scenario, r *Result) string {
	cells := func(actors []scenario.Actor, outcomes []Outcome) []string {
		out := make([]string, len(actors))
		for i, a := range actors {
			o := "?"
			if i < len(outcomes) {
				o = outcomes[i].String()
			}
			out[i] = a.String() + ": " + o
		}
		return out
	}

	parallel := make([][]string, len(s.Parallel))
	for t, thread := range s.Parallel {
		var outcomes []Outcome
		if t < len(r.Parallel) {
			outcomes = r.Parallel[t]
		}
		parallel[t] = cells(thread, outcomes)
	}

	var b strings.Builder
	b.WriteString(scenario.RenderBlocks(cells(s.Init, r.Init), parallel, cells(s.Post, r.Post)))
	for _, c := range r.Crashes {
		b.WriteString("\n")
		b.WriteString(c.String())
	}
	if r.Hung {
		b.WriteString("\nrun hung")
	}
	return b.String()
}
