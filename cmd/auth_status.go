package cmd

import (
	"context"
	"fmt"
	"io"

	"nowauth/internal/cli"
	"nowauth/internal/credentials"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Status-specific flags
var (
	statusWatch bool
	statusFlags cli.CommandFlags
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status [provider]",
	Short: "Show authentication status",
	Long: `Show the stored OAuth credentials, when their access tokens expire and
whether they can be refreshed.

With --watch the table is printed again whenever the credential store
changes, for example when another terminal logs in or refreshes a token.
Stop watching with Ctrl+C.

Examples:
  nowauth auth status
  nowauth auth status dev12345
  nowauth auth status -o json
  nowauth auth status --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthStatus,
}

func init() {
	authStatusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Print the status again whenever the credential store changes")
	cli.RegisterOutputFlags(authStatusCmd, &statusFlags)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	opts, err := statusFlags.ToRenderOptions()
	if err != nil {
		return err
	}

	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	provider := ""
	if len(args) > 0 {
		provider = args[0]
	}

	out := cmd.OutOrStdout()
	if err := printAuthStatus(out, store, provider, opts); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	return watchAuthStatus(cmd.Context(), out, store, provider, opts)
}

// watchAuthStatus re-renders the status on every store change until ctx is
// cancelled.
func watchAuthStatus(ctx context.Context, out io.Writer, store *credentials.Store, provider string, opts cli.RenderOptions) error {
	var renderErr error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := store.Watch(ctx, func() {
		fmt.Fprintf(out, "\n%s\n", text.FgHiBlack.Sprintf("--- %s ---", clock().Format("15:04:05")))
		if err := printAuthStatus(out, store, provider, opts); err != nil {
			renderErr = err
			cancel()
		}
	})
	if err != nil {
		return err
	}
	return renderErr
}

// printAuthStatus renders the OAuth records, or only provider when set.
func printAuthStatus(out io.Writer, store *credentials.Store, provider string, opts cli.RenderOptions) error {
	opts.Now = clock()

	var summaries []cli.CredentialSummary
	if provider != "" {
		c, ok := store.Get(provider)
		if !ok || !isOAuthCredential(c) {
			return &cli.AuthRequiredError{Provider: provider}
		}
		summaries = append(summaries, cli.SummarizeCredential(provider, c, opts.Now))
	} else {
		for _, s := range cli.SummarizeCredentials(store.All(), opts.Now) {
			if s.Type == credentials.TypeDomainOAuth || s.Type == credentials.TypeOAuth {
				summaries = append(summaries, s)
			}
		}
	}

	return cli.RenderCredentials(out, summaries, opts)
}

func isOAuthCredential(c credentials.Credential) bool {
	t := c.Type()
	return t == credentials.TypeDomainOAuth || t == credentials.TypeOAuth
}
