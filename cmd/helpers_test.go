package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nowauth/internal/cli"
	"nowauth/internal/config"
	"nowauth/internal/credentials"
)

const testClientSecret = "Zx9mQ4vT7kLp2Wn8Rb5Yc3Hd6Jf1Gs0A"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeKeyring struct {
	secrets   map[string]string
	lookupErr error
	forgotten []string
}

func newFakeKeyring() *fakeKeyring {
	return &fakeKeyring{secrets: map[string]string{}}
}

func (k *fakeKeyring) Lookup(instance, clientID string) (string, error) {
	if k.lookupErr != nil {
		return "", k.lookupErr
	}
	return k.secrets[instance+"#"+clientID], nil
}

func (k *fakeKeyring) Remember(instance, clientID, secret string) error {
	k.secrets[instance+"#"+clientID] = secret
	return nil
}

func (k *fakeKeyring) Forget(instance, clientID string) error {
	delete(k.secrets, instance+"#"+clientID)
	k.forgotten = append(k.forgotten, instance+"#"+clientID)
	return nil
}

type fakePrompter struct {
	secret    string
	readLine  func(ctx context.Context) (string, error)
	secrets   int
	lines     int
	closed    bool
	secretErr error
}

func (p *fakePrompter) ReadSecret(ctx context.Context, prompt string) (string, error) {
	p.secrets++
	return p.secret, p.secretErr
}

func (p *fakePrompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.lines++
	if p.readLine == nil {
		return "", cli.ErrPromptCancelled
	}
	return p.readLine(ctx)
}

func (p *fakePrompter) Close() error {
	p.closed = true
	return nil
}

// unsetEnv removes name for the duration of the test.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	os.Unsetenv(name)
}

// setupCLI isolates the package globals and points the credential store at a
// temporary file. It returns the store.
func setupCLI(t *testing.T) *credentials.Store {
	t.Helper()

	for _, name := range []string{
		config.EnvCallbackPort, config.EnvCallbackTimeout, config.EnvInstanceDomain,
		config.EnvHTTPTimeout, config.EnvRateLimitMax, config.EnvRateLimitWindow,
		config.EnvLogLevel, config.EnvLogFormat, config.EnvOpenBrowser,
		config.EnvInstance, config.EnvClientID, config.EnvClientSecret,
	} {
		unsetEnv(t, name)
	}

	storePath := filepath.Join(t.TempDir(), "auth.json")
	t.Setenv(config.EnvCredentialsFile, storePath)

	origKeyring, origPrompter, origBrowser, origClock := keyring, newPrompter, launchBrowser, clock
	origConfig := appConfig
	t.Cleanup(func() {
		keyring, newPrompter, launchBrowser, clock = origKeyring, origPrompter, origBrowser, origClock
		appConfig = origConfig
		configPath, debugMode, quietMode = "", false, false
		loginInstance, loginClientID, loginClientSecret, loginProvider = "", "", "", ""
		loginNoBrowser, loginRememberSecret = false, false
		logoutForgetSecret = false
		statusWatch = false
		statusFlags = cli.CommandFlags{}
		credentialsListFlags = cli.CommandFlags{}
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	keyring = newFakeKeyring()
	newPrompter = func() (prompter, error) { return nil, errors.New("no terminal in tests") }
	launchBrowser = func(string) error { return nil }
	clock = func() time.Time { return testNow }

	appConfig = config.DefaultConfig()
	appConfig.CredentialsFile = storePath

	return credentials.NewStore(storePath)
}

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := executeCommandWith(t, &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

// executeCommandWith runs the root command writing to the given streams.
func executeCommandWith(t *testing.T, stdout, stderr io.Writer, args ...string) error {
	t.Helper()

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(append([]string{"--config-path", t.TempDir()}, args...))

	return rootCmd.ExecuteContext(context.Background())
}

// oauthRecord is a DomainOAuth record expiring at expiresAt.
func oauthRecord(instance string, expiresAt time.Time) credentials.DomainOAuth {
	return credentials.DomainOAuth{
		Instance:     instance,
		ClientID:     "client-1",
		ClientSecret: testClientSecret,
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		ExpiresAt:    expiresAt.UnixMilli(),
	}
}
