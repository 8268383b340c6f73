package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"nowauth/internal/cli"
	"nowauth/internal/config"
	"nowauth/internal/oauth"
	"nowauth/pkg/logging"
	pkgoauth "nowauth/pkg/oauth"

	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginInstance       string
	loginClientID       string
	loginClientSecret   string
	loginProvider       string
	loginNoBrowser      bool
	loginRememberSecret bool
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate to an instance with OAuth",
	Long: `Authenticate to a ServiceNow instance using OAuth 2.0 with PKCE.

The authorization URL is opened in your browser and the redirect is received
on http://localhost:<callback-port>/callback. The resulting tokens are saved
in the credential store under the provider id (by default the first label of
the instance host name).

The instance, client id and client secret default to NOWAUTH_INSTANCE,
NOWAUTH_CLIENT_ID and NOWAUTH_CLIENT_SECRET. Without a secret, the OS keyring
is consulted and finally you are prompted for it.

With --no-browser no listener is started: open the printed URL on any device
and paste the URL the browser was redirected to.

Examples:
  nowauth auth login --instance dev12345 --client-id <id>
  nowauth auth login --instance https://acme.service-now.com --provider acme-prod
  nowauth auth login --instance dev12345 --client-id <id> --remember-secret
  nowauth auth login --instance dev12345 --client-id <id> --no-browser`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().StringVar(&loginInstance, "instance", "", "Instance name or URL (env: NOWAUTH_INSTANCE)")
	authLoginCmd.Flags().StringVar(&loginClientID, "client-id", "", "OAuth client id (env: NOWAUTH_CLIENT_ID)")
	authLoginCmd.Flags().StringVar(&loginClientSecret, "client-secret", "", "OAuth client secret (env: NOWAUTH_CLIENT_SECRET)")
	authLoginCmd.Flags().StringVar(&loginProvider, "provider", "", "Provider id to store the credential under")
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Do not start a listener; paste the redirect URL instead")
	authLoginCmd.Flags().BoolVar(&loginRememberSecret, "remember-secret", false, "Save the client secret in the OS keyring after a successful login")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.ErrOrStderr()

	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	// Created on first use.
	var p prompter
	getPrompter := func() (prompter, error) {
		if p == nil {
			var err error
			if p, err = newPrompter(); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	defer func() {
		if p != nil {
			p.Close()
		}
	}()

	req, fromKeyring, err := resolveLoginRequest(ctx, appConfig, getPrompter)
	if err != nil {
		return err
	}

	var result *oauth.LoginResult
	if loginNoBrowser {
		auth := newAuthenticator(appConfig, store, out, false)
		result, err = auth.LoginManual(ctx, req, func(ctx context.Context) (string, error) {
			pr, err := getPrompter()
			if err != nil {
				return "", err
			}
			return pr.ReadLine(ctx, "Redirect URL: ")
		})
		if err != nil {
			return classifyLoginError(result, err)
		}
	} else {
		progress := cli.StartProgress(out, "Waiting for authorization in the browser...", quietMode)
		auth := newAuthenticator(appConfig, store, progress.Writer(), appConfig.OpenBrowser)
		result, err = auth.Login(ctx, req)
		if err != nil {
			progress.Fail("Login failed")
			return classifyLoginError(result, err)
		}
		progress.Stop()
	}

	if loginRememberSecret && !fromKeyring {
		if err := keyring.Remember(result.Instance, req.ClientID, req.ClientSecret); err != nil {
			logging.Warn("Auth", "Could not save client secret: %v", err)
			fmt.Fprintln(out, cli.FormatWarning("The client secret was not saved to the keyring."))
		}
	}

	if !quietMode {
		msg := fmt.Sprintf("Logged in to %s as %s", result.Instance, result.ProviderID)
		if !result.ExpiresAt.IsZero() {
			msg += fmt.Sprintf(" (token expires %s)", cli.FormatExpiry(result.ExpiresAt, clock()))
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	}
	return nil
}

// resolveLoginRequest fills the login request from flags, then the
// environment. The secret additionally falls back to the keyring and then
// to a prompt. fromKeyring reports whether the secret came from the keyring.
func resolveLoginRequest(ctx context.Context, cfg config.NowauthConfig, getPrompter func() (prompter, error)) (req oauth.LoginRequest, fromKeyring bool, err error) {
	req = oauth.LoginRequest{
		ProviderID:   loginProvider,
		Instance:     firstNonEmpty(loginInstance, os.Getenv(config.EnvInstance)),
		ClientID:     firstNonEmpty(loginClientID, os.Getenv(config.EnvClientID)),
		ClientSecret: firstNonEmpty(loginClientSecret, os.Getenv(config.EnvClientSecret)),
	}

	if req.Instance == "" {
		return req, false, errors.New("an instance is required: pass --instance or set " + config.EnvInstance)
	}
	if req.ClientID == "" {
		return req, false, errors.New("a client id is required: pass --client-id or set " + config.EnvClientID)
	}
	if req.ClientSecret != "" {
		return req, false, nil
	}

	instance, err := pkgoauth.NormalizeInstanceURL(req.Instance, cfg.InstanceDomain)
	if err != nil {
		return req, false, err
	}

	secret, err := keyring.Lookup(instance, req.ClientID)
	if err != nil {
		logging.Debug("Auth", "Keyring unavailable: %v", err)
	}
	if secret != "" {
		req.ClientSecret = secret
		return req, true, nil
	}

	p, err := getPrompter()
	if err != nil {
		return req, false, err
	}
	req.ClientSecret, err = p.ReadSecret(ctx, "Client secret: ")
	if err != nil {
		return req, false, err
	}
	return req, false, nil
}

// classifyLoginError names the failed login by provider id, or by instance
// when the request was rejected before a provider id was derived.
func classifyLoginError(result *oauth.LoginResult, err error) error {
	return cli.ClassifyAuthError(firstNonEmpty(result.ProviderID, result.Instance), result.Instance, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// printIfNotQuiet prints to w unless --quiet is set.
func printIfNotQuiet(w io.Writer, format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(w, format, args...)
	}
}
