package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/testutil"
)

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "durlin", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"render", "validate", "verify", "run", "history"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)

	_, _, err := execute(t, NewRootCommand(), "--format", "xml", "render", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_ConfigErrorsAreCommandErrors(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)
	cfgPath := testutil.WriteFile(t, dir, "durlin.toml", "[verify]\nworkerz = 2\n")

	_, _, err := execute(t, NewRootCommand(), "--config", cfgPath, "render", scenarioPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeConfig)
}

func TestRootCommand_ConfigPolicyApplies(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := testutil.WriteFile(t, dir, "durable.yaml", testutil.DurableScenarioYAML)
	resultPath := testutil.WriteFile(t, dir, "lost.yaml", testutil.LostPushResultYAML)
	cfgPath := testutil.WriteFile(t, dir, "durlin.toml", "[verify]\npolicy = \"buffered\"\n")

	out, _, err := execute(t, NewRootCommand(), "--config", cfgPath, "verify", scenarioPath, resultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ PASS durable-crash")
	assert.Contains(t, out, "policy buffered")

	// An explicit flag beats the file.
	out, _, err = execute(t, NewRootCommand(), "--config", cfgPath, "verify", "--policy", "durable", scenarioPath, resultPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ FAIL durable-crash")
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "stack.yaml", testutil.StackScenarioYAML)

	out, errOut, err := execute(t, NewRootCommand(), "--verbose", "--format", "json", "validate", path)
	require.NoError(t, err)
	decode(t, out, nil)
	assert.Contains(t, errOut, "Validating "+path)
}
