package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/testutil"
)

func TestRun_RequiresTarget(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)

	_, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"target" not set`)
}

func TestRun_UnknownTarget(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)

	out, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), "--target", "btree", sc)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeFlag+"]")
	assert.Contains(t, out, "durable-stack")
}

func TestRun_WritesResult(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	outPath := filepath.Join(dir, "result.yaml")

	out, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--target", "durable-stack", "--out", outPath, sc)
	require.NoError(t, err)
	assert.Contains(t, out, "| push(1)")

	res, err := execution.Load(outPath)
	require.NoError(t, err)
	require.Len(t, res.Parallel, 2)
	assert.Len(t, res.Post, 1)
	assert.NotNil(t, res.Timing)
	assert.False(t, res.Hung)
}

func TestRun_CrashAtEndOfInit(t *testing.T) {
	tests := []struct {
		target      string
		wantVerdict string
		wantKind    string
	}{
		{"durable-stack", "pass", ""},
		{"volatile-stack", "fail", "CrashPolicyViolation"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			dir := t.TempDir()
			sc := testutil.WriteFile(t, dir, "durable.yaml", testutil.DurableScenarioYAML)
			sched := testutil.WriteFile(t, dir, "crash.yaml", testutil.EndOfInitCrashYAML)

			out, _, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
				"--target", tt.target, "--schedule", sched, "--verify", sc)
			if tt.wantVerdict == "pass" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, ExitFailure, GetExitCode(err))
			}

			var data RunOutput
			resp := decode(t, out, &data)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.target, data.Target)
			require.NotNil(t, data.Result)
			require.Len(t, data.Result.Crashes, 1)
			require.NotNil(t, data.Verification)
			assert.Equal(t, "stack", data.Verification.Spec)
			assert.Equal(t, tt.wantVerdict, data.Verification.Verdict)
			assert.Equal(t, tt.wantKind, data.Verification.FailureKind)
		})
	}
}

func TestRun_HungReceive(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "recv.yaml", testutil.ReceiveScenarioYAML)

	out, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--target", "channel", "--stall-timeout", "50ms", "--verify", sc)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ HUNG lonely-receive")
}

func TestRun_RecordsVerification(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	dbPath := filepath.Join(dir, "runs.db")

	cmd := newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: store.NewFixedGenerator("run-1"),
	})
	out, _, err := execute(t, cmd, "--target", "durable-stack", "--verify", "--db", dbPath, sc)
	require.NoError(t, err)
	assert.Contains(t, out, "recorded as run-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	v, err := st.ReadVerification(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "pass", v.Verdict)
	assert.Equal(t, "stack", v.Spec)
}

func TestRun_InvalidSchedule(t *testing.T) {
	dir := t.TempDir()
	sc := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	sched := testutil.WriteFile(t, dir, "crash.yaml", "crashes:\n  - {phase: init, step: 9}\n")

	out, _, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		"--target", "durable-stack", "--schedule", sched, sc)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeRun+"]")
}
