package cmd

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nowauth/internal/cli"
	"nowauth/internal/credentials"
)

func TestResolveProvider(t *testing.T) {
	store := setupCLI(t)

	_, err := resolveProvider(store, nil)
	var authRequired *cli.AuthRequiredError
	require.ErrorAs(t, err, &authRequired)
	assert.Empty(t, authRequired.Provider)

	require.NoError(t, store.Set("key", credentials.APIKey{Key: "k"}))
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(time.Hour))))

	provider, err := resolveProvider(store, nil)
	require.NoError(t, err)
	assert.Equal(t, "dev1", provider)

	provider, err = resolveProvider(store, []string{"explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", provider)

	require.NoError(t, store.Set("dev2", oauthRecord("https://dev2.service-now.com", testNow.Add(time.Hour))))
	_, err = resolveProvider(store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev1, dev2")
}

func TestAuthLogout(t *testing.T) {
	store := setupCLI(t)
	kr := newFakeKeyring()
	keyring = kr

	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(time.Hour))))
	require.NoError(t, store.Set("key", credentials.APIKey{Key: "k"}))

	stdout, _, err := executeCommand(t, "auth", "logout", "dev1", "--forget-secret")
	require.NoError(t, err)
	assert.Equal(t, "Logged out from https://dev1.service-now.com (dev1)\n", stdout)
	assert.Equal(t, []string{"https://dev1.service-now.com#client-1"}, kr.forgotten)

	_, ok := store.Get("dev1")
	assert.False(t, ok)
	_, ok = store.Get("key")
	assert.True(t, ok, "other records must survive a logout")
}

func TestAuthLogout_Missing(t *testing.T) {
	setupCLI(t)

	stdout, _, err := executeCommand(t, "auth", "logout", "dev9")
	require.NoError(t, err)
	assert.Equal(t, "No credential stored for dev9\n", stdout)
}

func TestAuthLogout_NotOAuth(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("key", credentials.APIKey{Key: "k"}))

	_, _, err := executeCommand(t, "auth", "logout", "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials remove key")

	_, ok := store.Get("key")
	assert.True(t, ok)
}

func TestAuthToken(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(time.Hour))))

	stdout, _, err := executeCommand(t, "auth", "token")
	require.NoError(t, err)
	assert.Equal(t, "access-old\n", stdout)
}

func TestAuthToken_RefreshesExpiring(t *testing.T) {
	store := setupCLI(t)

	forms := make(chan map[string]string, 1)
	server := newTokenServer(t, func(f map[string]string) (int, any) {
		forms <- f
		return http.StatusOK, map[string]any{"access_token": "access-new", "expires_in": 3600}
	})
	require.NoError(t, store.Set("local", oauthRecord(server.URL, testNow.Add(30*time.Second))))

	stdout, _, err := executeCommand(t, "auth", "token", "local")
	require.NoError(t, err)
	assert.Equal(t, "access-new\n", stdout)
	form := <-forms
	assert.Equal(t, "refresh_token", form["grant_type"])
	assert.Equal(t, "refresh-old", form["refresh_token"])

	c, _ := store.Get("local")
	record := c.(credentials.DomainOAuth)
	assert.Equal(t, "refresh-old", record.RefreshToken, "refresh token is kept when not rotated")
	assert.Equal(t, testNow.Add(time.Hour).UnixMilli(), record.ExpiresAt)
}

func TestAuthToken_NotLoggedIn(t *testing.T) {
	setupCLI(t)

	_, _, err := executeCommand(t, "auth", "token", "dev1")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestAuthRefresh(t *testing.T) {
	store := setupCLI(t)

	server := newTokenServer(t, func(map[string]string) (int, any) {
		return http.StatusOK, map[string]any{
			"access_token":  "access-new",
			"refresh_token": "refresh-new",
			"expires_in":    1800,
		}
	})
	require.NoError(t, store.Set("local", oauthRecord(server.URL, testNow.Add(time.Hour))))

	stdout, _, err := executeCommand(t, "auth", "refresh", "local")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token refreshed for local (expires in 30 minutes)")

	c, _ := store.Get("local")
	record := c.(credentials.DomainOAuth)
	assert.Equal(t, "access-new", record.AccessToken)
	assert.Equal(t, "refresh-new", record.RefreshToken)
}

func TestAuthRefresh_InvalidGrant(t *testing.T) {
	store := setupCLI(t)

	server := newTokenServer(t, func(map[string]string) (int, any) {
		return http.StatusBadRequest, map[string]any{"error": "invalid_grant"}
	})
	require.NoError(t, store.Set("local", oauthRecord(server.URL, testNow.Add(time.Hour))))

	_, _, err := executeCommand(t, "auth", "refresh", "local")
	require.Error(t, err)

	var expired *cli.AuthExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, server.URL, expired.Instance)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestAuthStatus(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(2*time.Hour))))
	require.NoError(t, store.Set("key", credentials.APIKey{Key: "k"}))

	stdout, _, err := executeCommand(t, "auth", "status", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PROVIDER")
	assert.Contains(t, stdout, "dev1")
	assert.Contains(t, stdout, "in 2 hours")
	assert.NotContains(t, stdout, "key", "non-OAuth records are not listed")
}

func TestAuthStatus_JSON(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("dev1", oauthRecord("https://dev1.service-now.com", testNow.Add(-time.Minute))))

	stdout, _, err := executeCommand(t, "auth", "status", "dev1", "-o", "json")
	require.NoError(t, err)

	var summaries []cli.CredentialSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, cli.StatusExpired, summaries[0].Status)
	assert.True(t, summaries[0].Refresh)
}

func TestAuthStatus_UnknownProvider(t *testing.T) {
	store := setupCLI(t)
	require.NoError(t, store.Set("key", credentials.APIKey{Key: "k"}))

	_, _, err := executeCommand(t, "auth", "status", "key")
	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestAuthStatus_InvalidOutput(t *testing.T) {
	setupCLI(t)

	_, _, err := executeCommand(t, "auth", "status", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
