package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stack-a.yaml", `
description: "two pushes race with a pop"
spec: stack
parallel:
  - ["push(1)", "pop()"]
  - [{op: push, args: [2]}]
post: ["pop()"]
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stack-a", s.Name, "name defaults to file stem")
	assert.Equal(t, "stack", s.Spec)
	assert.Equal(t, 2, s.Threads())
	assert.Equal(t, NewActor("push", 2), s.Parallel[1][0])
	assert.Equal(t, []Actor{NewActor("pop")}, s.Post)
}

func TestLoadCUE(t *testing.T) {
	path := writeFile(t, t.TempDir(), "durable.cue", `
name: "durable-push"
spec: "stack"
init: ["push(5)"]
post: [{op: "pop"}]
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "durable-push", s.Name)
	assert.Equal(t, []Actor{NewActor("push", 5)}, s.Init)
	assert.Equal(t, []Actor{NewActor("pop")}, s.Post)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "typo.yaml", "name: x\nparalel: []\n")

	_, err := Load(path)
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.Path)
}

func TestLoadInvariantViolationIsNotALoadError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", `
init: [{op: receive, suspendable: true}]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsInvariantError(err))

	var le *LoadError
	assert.False(t, errors.As(err, &le))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.json", "{}")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scenario file extension")
}

func TestParseYAMLEmptyDocument(t *testing.T) {
	s, err := ParseYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Size())
}
