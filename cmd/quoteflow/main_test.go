package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotePath = "../../pkg/catalog/testdata/quote.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "quoteflow version "))
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", quotePath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 steps")
	assert.Contains(t, out, "Definition is valid!")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
steps:
  - id: a
    selectionMode: single
    visibleWhen:
      requires:
        stepId: ghost
`), 0o644))
	_, err = execute(t, "validate", bad)
	assert.ErrorContains(t, err, "validation failed")
}

func TestGraphCommand(t *testing.T) {
	t.Setenv("QUOTEFLOW_DEFINITION", quotePath)

	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "vehicle --> canopy")
}

func TestSessionCommands(t *testing.T) {
	t.Setenv("QUOTEFLOW_DEFINITION", quotePath)
	t.Setenv("QUOTEFLOW_STORE", "file")
	t.Setenv("QUOTEFLOW_SESSION_DIR", t.TempDir())

	out, err := execute(t, "session", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No active sessions found.")

	_, err = execute(t, "session", "rm")
	assert.ErrorContains(t, err, "--all")
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("QUOTEFLOW_CHANNEL", "autospec")
	rootCmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, rootCmd.Flags().Set("channel", "linex"))
	t.Cleanup(func() {
		_ = rootCmd.Flags().Set("channel", "")
		rootCmd.Flags().Lookup("channel").Changed = false
	})

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, "linex", cfg.Channel)
}
