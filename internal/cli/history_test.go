package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/scenario"
	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/testutil"
)

// seedHistory records a pass for stack-a and a fail for durable-crash, and
// returns the database path and the stack-a scenario file.
func seedHistory(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	stackPath := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	durablePath := testutil.WriteFile(t, dir, "durable.yaml", testutil.DurableScenarioYAML)
	dbPath := filepath.Join(dir, "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	stack, err := scenario.Load(stackPath)
	require.NoError(t, err)
	durable, err := scenario.Load(durablePath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.WriteVerification(ctx, stack, store.Verification{
		ID: "v-1", Spec: "stack", Policy: "durable", Verdict: "pass", Explored: 12, Seq: 1,
	}))
	require.NoError(t, st.WriteVerification(ctx, durable, store.Verification{
		ID: "v-2", Spec: "stack", Policy: "durable", Verdict: "fail",
		FailureKind: "CrashPolicyViolation", Explored: 3, Seq: 2,
	}))
	return dbPath, stackPath
}

func TestHistory_Text(t *testing.T) {
	dbPath, _ := seedHistory(t)

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seq")
	assert.Contains(t, out, "v-1")
	assert.Contains(t, out, "CrashPolicyViolation")
	assert.Contains(t, out, "total: fail=1 pass=1")
	assert.Less(t, strings.Index(out, "v-1"), strings.Index(out, "v-2"), "oldest first")
}

func TestHistory_Filters(t *testing.T) {
	dbPath, stackPath := seedHistory(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"all", nil, []string{"v-1", "v-2"}},
		{"by verdict", []string{"--verdict", "fail"}, []string{"v-2"}},
		{"by scenario file", []string{"--scenario", stackPath}, []string{"v-1"}},
		{"by unknown hash", []string{"--scenario", "deadbeef"}, []string{}},
		{"limit", []string{"--limit", "1"}, []string{"v-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath}, tt.args...)
			out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)

			var data HistoryOutput
			decode(t, out, &data)
			ids := []string{}
			for _, e := range data.Verifications {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, map[string]int{"fail": 1, "pass": 1}, data.Counts)
		})
	}
}

func TestHistory_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No verifications recorded.\n", out)
}

func TestHistory_Errors(t *testing.T) {
	dbPath, _ := seedHistory(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no database", nil, ErrCodeFlag},
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db")}, ErrCodeNotFound},
		{"bad verdict", []string{"--db", dbPath, "--verdict", "maybe"}, ErrCodeFlag},
		{"negative limit", []string{"--db", dbPath, "--limit", "-1"}, ErrCodeFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
