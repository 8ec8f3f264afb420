package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// testEnv holds isolated directories for a command run.
type testEnv struct {
	configPath string
	modelDir   string
	dataDir    string
}

// newTestEnv writes a configuration with a small forest so that commands
// which train a model stay fast.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()
	env := testEnv{
		configPath: filepath.Join(dir, "phishguard.yaml"),
		modelDir:   filepath.Join(dir, "model"),
		dataDir:    filepath.Join(dir, "data"),
	}
	content := `training:
  trees: 8
  maxDepth: 8
  seed: 1
`
	if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// args prefixes the global flags selecting the isolated directories.
func (e testEnv) args(args ...string) []string {
	return append([]string{
		"--config", e.configPath,
		"--model-dir", e.modelDir,
		"--data-dir", e.dataDir,
	}, args...)
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}
