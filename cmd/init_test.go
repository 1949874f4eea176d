package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func chdirTemp(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(originalWD)) })

	return tempDir
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	output := &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.AddCommand(newInitCmd())
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"init"}, args...))

	err := cmd.Execute()

	return output.String(), err
}

func TestInitCmd_WritesDefaults(t *testing.T) {
	tempDir := chdirTemp(t)

	output, err := runInit(t)
	require.NoError(t, err)
	assert.Contains(t, output, "wrote")

	contents, err := os.ReadFile(filepath.Join(tempDir, configFileName))
	require.NoError(t, err)

	var written map[string]any
	require.NoError(t, yaml.Unmarshal(contents, &written))

	rules, ok := written["rules"].(map[string]any)
	require.True(t, ok, "rules section missing in %s", contents)
	assert.Equal(t, defaultProfile, rules["profile"])
	assert.Contains(t, written, "fix")
	assert.Contains(t, written, "watch")
}

func TestInitCmd_Refusals(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		tempDir := chdirTemp(t)
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, configFileName), []byte("existing: true\n"), 0o644))

		_, err := runInit(t)
		require.Error(t, err)

		contents, err := os.ReadFile(filepath.Join(tempDir, configFileName))
		require.NoError(t, err)
		assert.Equal(t, "existing: true\n", string(contents))
	})

	t.Run("positional arguments", func(t *testing.T) {
		tempDir := chdirTemp(t)

		_, err := runInit(t, "extra")
		require.Error(t, err)
		assert.NoFileExists(t, filepath.Join(tempDir, configFileName))
	})
}
