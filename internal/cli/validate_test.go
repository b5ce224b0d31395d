package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/testutil"
)

func TestValidate_AllValid(t *testing.T) {
	dir := t.TempDir()
	stack := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	recv := testutil.WriteFile(t, dir, "recv.yaml", testutil.ReceiveScenarioYAML)

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), stack, recv)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+stack+"\n")
	assert.Contains(t, out, "✓ "+recv+" (has suspendable actors)")
	assert.Contains(t, out, "✓ All scenarios valid")
}

func TestValidate_InvalidFileFailsWithExit1(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	bad := testutil.WriteFile(t, dir, "bad.yaml", testutil.InvalidScenarioYAML)

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed for 1 of 2 file(s)")
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, ErrCodeInvalidScenario)
	assert.NotContains(t, out, "All scenarios valid")
}

func TestValidate_JSON(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)

	t.Run("valid", func(t *testing.T) {
		out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), good)
		require.NoError(t, err)

		var data ValidationResult
		resp := decode(t, out, &data)
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, data.Valid)
		require.Len(t, data.Files, 1)
		assert.Equal(t, "stack-a", data.Files[0].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), good, "nope.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var data ValidationResult
		resp := decode(t, out, &data)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		require.Len(t, data.Files, 2)
		assert.True(t, data.Files[0].Valid)
		assert.False(t, data.Files[1].Valid)
	})
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	assert.Error(t, err)
}
