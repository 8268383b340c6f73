package cmd

import (
	"fmt"

	"nowauth/internal/cli"

	"github.com/spf13/cobra"
)

var credentialsListFlags cli.CommandFlags

// credentialsCmd represents the credentials command group
var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Inspect and remove stored credentials",
	Long: `Inspect and remove the records of the local credential store.

The store holds OAuth tokens created by 'nowauth auth login' next to API keys,
basic-auth pairs, pre-issued tokens and license records written by other
tools. Secrets are never printed; the wide output shows their last four
characters.`,
}

// credentialsListCmd represents the credentials list command
var credentialsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored credentials",
	Long: `List every record of the credential store.

Examples:
  nowauth credentials list
  nowauth credentials list -o wide
  nowauth credentials list -o yaml`,
	Args: cobra.NoArgs,
	RunE: runCredentialsList,
}

// credentialsRemoveCmd represents the credentials remove command
var credentialsRemoveCmd = &cobra.Command{
	Use:     "remove <provider>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored credential of any type",
	Args:    cobra.ExactArgs(1),
	RunE:    runCredentialsRemove,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsRemoveCmd)

	cli.RegisterOutputFlags(credentialsListCmd, &credentialsListFlags)
}

func runCredentialsList(cmd *cobra.Command, args []string) error {
	opts, err := credentialsListFlags.ToRenderOptions()
	if err != nil {
		return err
	}

	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	opts.Now = clock()
	return cli.RenderCredentials(cmd.OutOrStdout(), cli.SummarizeCredentials(store.All(), opts.Now), opts)
}

func runCredentialsRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore(appConfig)
	if err != nil {
		return err
	}

	provider := args[0]
	if _, ok := store.Get(provider); !ok {
		return fmt.Errorf("no credential stored for %s", provider)
	}

	if err := store.Remove(provider); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}

	printIfNotQuiet(cmd.OutOrStdout(), "Removed %s\n", provider)
	return nil
}
