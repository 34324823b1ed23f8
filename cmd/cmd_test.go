package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcourse/swiftcourse/internal/progress"
)

// run executes the root command with args against a fresh database in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args,
		"--db", filepath.Join(dir, "swiftcourse.db"),
		"--config", filepath.Join(dir, "config.yaml"),
	))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
}

const quietConfig = `
log:
  mode: production
storage:
  backend: sqlite
llm:
  provider: mock
  api_key: ""
`

func TestProgressCommands(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)

	out, err := run(t, dir, "progress", "complete", "module-0", "about-swiftcourse")
	require.NoError(t, err)
	assert.Contains(t, out, "Module 13%")

	_, err = run(t, dir, "progress", "complete", "module-9", "nope")
	assert.Error(t, err)

	out, err = run(t, dir, "progress", "position", "module-0", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "module-0/summary")

	out, err = run(t, dir, "progress", "next")
	require.NoError(t, err)
	assert.Contains(t, out, "module-1/never-split-difference")

	out, err = run(t, dir, "progress", "show", "--json")
	require.NoError(t, err)
	var sum progress.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, []string{"about-swiftcourse"}, sum.Modules[0].CompletedSections)
	assert.Equal(t, progress.Position{ModuleID: "module-0", SectionID: "summary"}, sum.Position)
}

func TestProgressResetNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)

	_, err := run(t, dir, "progress", "complete", "module-1", "growth-mindset")
	require.NoError(t, err)

	_, err = run(t, dir, "progress", "reset")
	assert.Error(t, err)

	out, err := run(t, dir, "progress", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset.")
}

func TestChatWithMockProvider(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, quietConfig)

	out, err := run(t, dir, "chat", "what", "is", "limbic", "friction?")
	require.NoError(t, err)
	assert.Contains(t, out, "canned answer")

	out, err = run(t, dir, "llm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cli-chat")

	out, err = run(t, dir, "llm", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "mock")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "GEMINI_API_KEY")

	_, err = run(t, dir, "config", "init")
	assert.Error(t, err, "existing file should not be overwritten without --force")
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "swiftcourse")
}
