package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"nowauth/internal/cli"
	"nowauth/internal/config"
	"nowauth/internal/credentials"
	"nowauth/internal/oauth"
)

// secretKeyring keeps client secrets between logins.
type secretKeyring interface {
	Lookup(instance, clientID string) (string, error)
	Remember(instance, clientID, secret string) error
	Forget(instance, clientID string) error
}

// prompter reads interactive input.
type prompter interface {
	ReadSecret(ctx context.Context, prompt string) (string, error)
	ReadLine(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Replaced in tests.
var (
	launchBrowser oauth.BrowserFunc = oauth.OpenBrowser
	keyring       secretKeyring     = credentials.NewSecretKeyring()
	newPrompter                     = func() (prompter, error) { return cli.NewPrompter(nil, nil) }
	clock                           = time.Now
)

// openStore opens the credential store configured in cfg.
func openStore(cfg config.NowauthConfig) (*credentials.Store, error) {
	path := cfg.CredentialsFile
	if path == "" {
		var err error
		path, err = credentials.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return credentials.NewStore(path), nil
}

// newAuthenticator builds an Authenticator from cfg. Progress messages and
// the authorization URL go to out. A false browser disables launching.
func newAuthenticator(cfg config.NowauthConfig, store oauth.CredentialStore, out io.Writer, browser bool) *oauth.Authenticator {
	tokens := oauth.NewTokenClient(
		oauth.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		oauth.WithRateLimiter(oauth.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)),
	)

	var open oauth.BrowserFunc
	if browser {
		open = launchBrowser
	}

	return oauth.NewAuthenticator(oauth.Config{
		CallbackPort:    cfg.CallbackPort,
		CallbackTimeout: cfg.CallbackTimeout,
		InstanceDomain:  cfg.InstanceDomain,
	}, store,
		oauth.WithTokenClient(tokens),
		oauth.WithOutput(out),
		oauth.WithBrowser(open),
		oauth.WithClock(clock),
	)
}

// resolveProvider picks the OAuth credential a command operates on: the
// argument when given, otherwise the only OAuth record in the store.
func resolveProvider(store *credentials.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	var ids []string
	for id, c := range store.All() {
		if c.Type() == credentials.TypeDomainOAuth {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	switch len(ids) {
	case 0:
		return "", &cli.AuthRequiredError{Reason: oauth.ErrNotFound}
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("several OAuth credentials are stored (%s), name one as argument", strings.Join(ids, ", "))
	}
}
