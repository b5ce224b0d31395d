package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/store"
	"github.com/roach88/durlin/internal/testutil"
)

// verifyFiles writes a scenario and a result into a temp dir.
func verifyFiles(t *testing.T, scenarioYAML, resultYAML string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return testutil.WriteFile(t, dir, "scenario.yaml", scenarioYAML),
		testutil.WriteFile(t, dir, "result.yaml", resultYAML)
}

func TestVerify_Pass(t *testing.T) {
	sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.StackResultYAML)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), sc, res)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ PASS stack-a (spec stack, policy durable;")
}

func TestVerify_PassVerboseShowsLinearization(t *testing.T) {
	sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.StackResultYAML)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text", Verbose: true}), sc, res)
	require.NoError(t, err)
	assert.Contains(t, out, "linearization:")
}

func TestVerify_FailExitsWithFailure(t *testing.T) {
	sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.TamperedResultYAML)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), sc, res)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ FAIL stack-a")
	assert.Contains(t, out, "VerificationMismatch")
}

func TestVerify_CrashPolicy(t *testing.T) {
	sc, res := verifyFiles(t, testutil.DurableScenarioYAML, testutil.LostPushResultYAML)

	t.Run("durable rejects a lost completed push", func(t *testing.T) {
		out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), sc, res)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var data VerifyResult
		resp := decode(t, out, &data)
		assert.Equal(t, "ok", resp.Status, "a fail verdict is still a successful command")
		assert.Equal(t, "fail", data.Verdict)
		assert.Equal(t, "durable", data.Policy)
		assert.Equal(t, "CrashPolicyViolation", data.FailureKind)
		assert.Equal(t, []string{"head"}, data.OffendingCells)
		assert.NotEmpty(t, data.Counterexample)
	})

	t.Run("buffered allows it", func(t *testing.T) {
		out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), "--policy", "buffered", sc, res)
		require.NoError(t, err)

		var data VerifyResult
		decode(t, out, &data)
		assert.Equal(t, "pass", data.Verdict)
		assert.Equal(t, "buffered", data.Policy)
		assert.Empty(t, data.FailureKind)
	})
}

func TestVerify_WorkersDoNotChangeVerdict(t *testing.T) {
	sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.TamperedResultYAML)

	for _, workers := range []string{"1", "4"} {
		t.Run("workers="+workers, func(t *testing.T) {
			out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), "--workers", workers, sc, res)
			require.Error(t, err)

			var data VerifyResult
			decode(t, out, &data)
			assert.Equal(t, "fail", data.Verdict)
			assert.Equal(t, "VerificationMismatch", data.FailureKind)
		})
	}
}

func TestVerify_RecordsVerdict(t *testing.T) {
	sc, res := verifyFiles(t, testutil.DurableScenarioYAML, testutil.LostPushResultYAML)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	cmd := newVerifyCommand(&VerifyOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: store.NewFixedGenerator("v-1"),
	})

	out, _, err := execute(t, cmd, "--db", dbPath, sc, res)
	require.Error(t, err)
	assert.Contains(t, out, "recorded as v-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	v, err := st.ReadVerification(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, "durable-crash", v.ScenarioName)
	assert.Equal(t, "fail", v.Verdict)
	assert.Equal(t, "CrashPolicyViolation", v.FailureKind)
	assert.Equal(t, int64(1), v.Seq)
	require.Len(t, v.Crashes, 1)
	assert.Equal(t, []string{"head"}, v.Crashes[0].LostCells)
}

func TestVerify_RealTime(t *testing.T) {
	t.Run("timed result", func(t *testing.T) {
		timed := testutil.StackResultYAML + `timing:
  parallel:
    - [{call: 1, return: 2}, {call: 5, return: 6}]
    - [{call: 3, return: 4}]
  post: [{call: 7, return: 8}]
`
		sc, res := verifyFiles(t, testutil.StackScenarioYAML, timed)

		out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), "--realtime", sc, res)
		require.NoError(t, err)

		var data VerifyResult
		decode(t, out, &data)
		assert.Equal(t, "pass", data.Verdict)
		assert.Equal(t, "pass", data.RealTime)
	})

	t.Run("untimed result is a command error", func(t *testing.T) {
		sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.StackResultYAML)

		out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--realtime", sc, res)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error ["+ErrCodeVerify+"]")
	})
}

func TestVerify_CommandErrors(t *testing.T) {
	sc, res := verifyFiles(t, testutil.StackScenarioYAML, testutil.StackResultYAML)
	_, shortRes := verifyFiles(t, testutil.StackScenarioYAML, "parallel:\n  - [void]\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown spec", []string{"--spec", "queue-of-doom", sc, res}, ErrCodeSpec},
		{"bad policy", []string{"--policy", "eventual", sc, res}, ErrCodeFlag},
		{"zero workers", []string{"--workers", "0", sc, res}, ErrCodeFlag},
		{"missing scenario", []string{"nope.yaml", res}, ErrCodeNotFound},
		{"missing result", []string{sc, "nope.yaml"}, ErrCodeNotFound},
		{"result does not fit", []string{sc, shortRes}, ErrCodeInvalidResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
