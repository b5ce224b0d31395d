package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Scenario and result documents shared by command tests.
const (
	// StackScenarioYAML races two pushes with a pop, then pops once more.
	StackScenarioYAML = `name: stack-a
spec: stack
parallel:
  - ["push(1)", "pop()"]
  - ["push(2)"]
post: ["pop()"]
`

	// StackResultYAML is a run of StackScenarioYAML with a linearization.
	StackResultYAML = `parallel:
  - [void, 2]
  - [void]
post: [1]
`

	// TamperedResultYAML pops a value nobody pushed.
	TamperedResultYAML = `parallel:
  - [void, 99]
  - [void]
post: [1]
`

	// DurableScenarioYAML pushes once and pops after a crash.
	DurableScenarioYAML = `name: durable-crash
spec: stack
init: ["push(5)"]
post: ["pop()"]
`

	// LostPushResultYAML loses the completed push at the crash.
	LostPushResultYAML = `init: [void]
post: [null]
crashes:
  - {phase: init, cut: [1], dirty_cells: [head], lost_cells: [head]}
`

	// ReceiveScenarioYAML receives on an empty channel with no sender.
	ReceiveScenarioYAML = `name: lonely-receive
spec: channel
parallel:
  - [{op: receive, suspendable: true}]
`

	// InvalidScenarioYAML puts a suspendable actor in init.
	InvalidScenarioYAML = `name: bad
init: [{op: receive, suspendable: true}]
`

	// EndOfInitCrashYAML crashes after the init part, once every init actor
	// has returned, losing every unflushed cell.
	EndOfInitCrashYAML = `crashes:
  - {phase: init, step: 1, mode: lose-all}
`
)

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
