package cmd

import (
	"fmt"

	"nowauth/internal/cli"
	"nowauth/internal/credentials"
	"nowauth/internal/oauth"
	"nowauth/pkg/logging"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth authentication to instances",
	Long: `Manage OAuth credentials for ServiceNow instances.

The auth command group provides subcommands to log in, log out, check status,
refresh tokens and print an access token for use in scripts.

Examples:
  nowauth auth login --instance dev12345   # Browser login
  nowauth auth status                      # Show OAuth credentials
  nowauth auth status --watch              # Keep showing them as they change
  nowauth auth refresh dev12345            # Force a token refresh
  nowauth auth token dev12345              # Print a valid access token
  nowauth auth logout dev12345             # Remove the stored credential`,
}

// Logout-specific flags
var logoutForgetSecret bool

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove a stored OAuth credential",
	Long: `Remove the OAuth credential stored for a provider.

The provider may be omitted when exactly one OAuth credential is stored.

Examples:
  nowauth auth logout                      # The only stored OAuth credential
  nowauth auth logout dev12345
  nowauth auth logout dev12345 --forget-secret`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh [provider]",
	Short: "Force token refresh",
	Long: `Exchange the stored refresh token for a new access token.

The refreshed tokens replace the stored ones. The refresh token is kept
unless the instance issues a new one.

Examples:
  nowauth auth refresh
  nowauth auth refresh dev12345`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthRefresh,
}

// authTokenCmd represents the auth token command
var authTokenCmd = &cobra.Command{
	Use:   "token [provider]",
	Short: "Print a valid access token",
	Long: `Print the stored access token, refreshing it first when it expires
within a minute. Only the token is written to standard output.

Examples:
  curl -H "Authorization: Bearer $(nowauth auth token dev12345)" \
    https://dev12345.service-now.com/api/now/table/incident`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthToken,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authTokenCmd)

	authLogoutCmd.Flags().BoolVar(&logoutForgetSecret, "forget-secret", false, "Also delete the client secret from the OS keyring")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(store, args)
	if err != nil {
		return err
	}

	c, ok := store.Get(provider)
	if !ok {
		printIfNotQuiet(cmd.OutOrStdout(), "No credential stored for %s\n", provider)
		return nil
	}
	record, ok := c.(credentials.DomainOAuth)
	if !ok {
		return fmt.Errorf("%s is a %s credential, use 'nowauth credentials remove %s'", provider, c.Type(), provider)
	}

	if err := store.Remove(provider); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	if logoutForgetSecret {
		if err := keyring.Forget(record.Instance, record.ClientID); err != nil {
			logging.Warn("Auth", "Could not delete client secret: %v", err)
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("The client secret was not removed from the keyring."))
		}
	}

	printIfNotQuiet(cmd.OutOrStdout(), "Logged out from %s (%s)\n", record.Instance, provider)
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(store, args)
	if err != nil {
		return err
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), fmt.Sprintf("Refreshing token for %s...", provider), quietMode)
	auth := newAuthenticator(appConfig, store, progress.Writer(), false)

	record, err := auth.Refresh(cmd.Context(), provider)
	if err != nil {
		progress.Fail("Token refresh failed")
		return cli.ClassifyAuthError(provider, instanceOf(store, provider), err)
	}
	progress.Stop()

	printIfNotQuiet(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess(fmt.Sprintf("Token refreshed for %s (expires %s)",
		provider, cli.FormatExpiry(record.Expiry(), clock()))))
	return nil
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(store, args)
	if err != nil {
		return err
	}

	auth := newAuthenticator(appConfig, store, cmd.ErrOrStderr(), false)
	token, err := auth.AccessToken(cmd.Context(), provider)
	if err != nil {
		return cli.ClassifyAuthError(provider, instanceOf(store, provider), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// instanceOf returns the instance of the stored OAuth credential, or "".
func instanceOf(store oauth.CredentialStore, provider string) string {
	if c, ok := store.Get(provider); ok {
		if record, ok := c.(credentials.DomainOAuth); ok {
			return record.Instance
		}
	}
	return ""
}
