package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeWithStdin(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRun_PromptAbortIsCommandError(t *testing.T) {
	// No mode anywhere and stdin hits EOF immediately.
	out, err := executeWithStdin(t, "", "run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "select mode")
	assert.Contains(t, out, "Select Transmission Mode:")
}

func TestRun_InvalidFlagValueFailsValidation(t *testing.T) {
	_, err := executeWithStdin(t, "", "run", "--mode", "byte0", "--baud=-9600")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "validate configuration")
}

func TestRun_UnknownModeFailsValidation(t *testing.T) {
	_, err := executeWithStdin(t, "", "run", "--mode", "burst")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingPortIsCommandError(t *testing.T) {
	dir := t.TempDir()
	out, err := executeWithStdin(t, "", "run",
		"--mode", "scan",
		"--port", filepath.Join(dir, "no-such-tty"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "open uart")

	// Config resolution succeeded before the port failed.
	assert.Contains(t, out, "Starting in MODE: scan")
}

func TestRun_ConfigFileOverriddenByFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rig.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: byte0\n"), 0o644))

	out, err := executeWithStdin(t, "",
		"--config", cfgPath,
		"run",
		"--mode", "all",
		"--port", filepath.Join(dir, "no-such-tty"))
	require.Error(t, err, "port does not exist; resolution still ran first")
	assert.Contains(t, out, "Starting in MODE: all", "flag overrides the config file")
}

func TestRun_PromptResolvesMode(t *testing.T) {
	dir := t.TempDir()
	out, err := executeWithStdin(t, "3\n", "run",
		"--port", filepath.Join(dir, "no-such-tty"))
	require.Error(t, err, "port does not exist; the prompt still resolved")
	assert.Contains(t, out, "Enter choice (1-3): ")
	assert.Contains(t, out, "Starting in MODE: all")
}

func TestRun_RejectsPositionalArgs(t *testing.T) {
	_, err := executeWithStdin(t, "", "run", "extra")
	require.Error(t, err)
}
