// Package scenario models actors and the three-phase scenarios built from them.
//
// A scenario has an init phase (one thread), a parallel phase (one actor
// sequence per thread) and a post phase (one thread). Scenarios are
// validated at construction: suspendable actors may not appear in init, and
// post must be empty whenever a suspendable actor exists.
//
// # File Format
//
// Scenario files are YAML or CUE documents checked against the embedded
// #Scenario schema:
//
//	name: stack-a
//	spec: stack
//	init: []
//	parallel:
//	  - ["push(1)", "pop()"]
//	  - [{op: push, args: [2]}]
//	post: ["pop()"]
//
// Actors use either the compact "op(args...)" form or the structured
// {op, args, suspendable} form.
package scenario
