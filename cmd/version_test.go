package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withVersion sets the root command version for the duration of the test.
func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := rootCmd.Version
	rootCmd.Version = v
	t.Cleanup(func() { rootCmd.Version = orig })
}

func TestVersionCmdProperties(t *testing.T) {
	cmd := newVersionCmd()

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Run)
	assert.NotNil(t, cmd.PersistentPreRunE, "version must not inherit config loading")
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"release", "1.2.3", "nowauth version 1.2.3\n"},
		{"unset", "", "nowauth version \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t)
			withVersion(t, tt.version)

			stdout, stderr, err := executeCommand(t, "version")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestVersion_BrokenConfigFile(t *testing.T) {
	setupCLI(t)
	withVersion(t, "1.2.3")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("callbackPort: [\n"), 0600))

	// The last --config-path wins over the one executeCommand adds.
	stdout, _, err := executeCommand(t, "--config-path", dir, "version")
	require.NoError(t, err)
	assert.Equal(t, "nowauth version 1.2.3\n", stdout)

	_, _, err = executeCommand(t, "--config-path", dir, "credentials", "list")
	require.Error(t, err, "other commands still report the broken file")
}

func TestVersionHelp(t *testing.T) {
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "nowauth's")
}
