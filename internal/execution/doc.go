// Package execution holds the recorded outcome of running a scenario.
//
// A Result mirrors its scenario's layout: one Outcome per actor, grouped by
// phase and thread, plus the crash events the strategy injected and a flag
// for runs that hung on a suspension. Results are produced by a strategy
// (see package runner) or loaded from YAML files:
//
//	parallel:
//	  - [void, 2]
//	  - [void]
//	post: [1]
//	crashes:
//	  - {phase: parallel, cut: [1, 0], dirty_cells: [head]}
//
// Outcomes are written as plain values (5, null, [1, 2]), as the reserved
// words void, crashed and suspended, as exception(Class), or in the mapping
// forms {value: X} and {exception: Class}.
package execution
