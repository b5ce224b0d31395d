package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/scenario"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestScenario builds a one-thread stack scenario named name.
func createTestScenario(t *testing.T, name string, pushed int) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.New(name,
		[]scenario.Actor{scenario.NewActor("push", pushed)},
		[][]scenario.Actor{{scenario.NewActor("pop")}},
		nil,
	)
	if err != nil {
		t.Fatalf("scenario.New() failed: %v", err)
	}
	return sc
}

// createTestVerification creates a passing verification with minimal fields.
func createTestVerification(id string, seq int64) Verification {
	return Verification{
		ID:       id,
		Spec:     "stack",
		Policy:   "durable",
		Verdict:  "pass",
		Explored: 3,
		Seq:      seq,
	}
}

func testCrash() execution.CrashEvent {
	return execution.CrashEvent{
		Phase:      scenario.PhaseParallel,
		Cut:        []int{1},
		DirtyCells: []string{"head"},
		LostCells:  []string{"head"},
	}
}
