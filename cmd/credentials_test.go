package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"nowauth/internal/credentials"
)

func TestCredentialsList(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(time.Hour))))
	require.NoError(t, store.Set("openai", credentials.APIKey{Key: "sk-abcdefghijklmnop"}))

	stdout, _, err := executeCommand(t, "credentials", "list", "-o", "wide", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SECRET")
	assert.Contains(t, stdout, "dev1")
	assert.Contains(t, stdout, "openai")
	assert.Contains(t, stdout, "****mnop")
	assert.NotContains(t, stdout, "sk-abcdefghijklmnop")
}

func TestCredentialsList_Empty(t *testing.T) {
	setupCLI(t)

	stdout, _, err := executeCommand(t, "creds", "ls")
	require.NoError(t, err)
	assert.Equal(t, "No credentials stored\n", stdout)
}

func TestCredentialsList_YAML(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("admin", credentials.DomainBasic{
		Instance: "https://dev1.service-now.com",
		Username: "admin",
		Password: "hunter2hunter2",
	}))

	stdout, _, err := executeCommand(t, "credentials", "list", "-o", "yaml")
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.NotContains(t, stdout, "hunter2hunter2")
}

func TestCredentialsRemove(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("openai", credentials.APIKey{Key: "sk-1"}))
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(time.Hour))))

	stdout, _, err := executeCommand(t, "credentials", "rm", "openai")
	require.NoError(t, err)
	assert.Equal(t, "Removed openai\n", stdout)

	assert.Equal(t, []string{"dev1"}, store.IDs())
}

func TestCredentialsRemove_Missing(t *testing.T) {
	setupCLI(t)

	_, _, err := executeCommand(t, "credentials", "remove", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential stored for nope")
}

func TestCredentialsRemove_Quiet(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("openai", credentials.APIKey{Key: "sk-1"}))

	stdout, _, err := executeCommand(t, "-q", "credentials", "remove", "openai")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, store.IDs())
}
