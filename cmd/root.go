package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"nowauth/internal/cli"
	"nowauth/internal/config"
	"nowauth/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no usable credential is stored.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow or a refresh failed.
	ExitCodeAuthFailed = 3
	// ExitCodeRateLimited indicates the token request budget is exhausted.
	ExitCodeRateLimited = 4
)

// Global flags and the configuration loaded from them.
var (
	configPath string
	debugMode  bool
	quietMode  bool

	appConfig = config.DefaultConfig()
)

// rootCmd represents the base command for the nowauth application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nowauth",
	Short: "Acquire and store credentials for ServiceNow instances",
	Long: `nowauth signs you in to a ServiceNow instance with OAuth 2.0
(authorization code with PKCE) and keeps the resulting tokens, together with
API keys and other credentials, in a local credential store.

The browser is redirected to a listener on http://localhost:3005/callback,
which must be registered as the redirect URI of the OAuth application.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:      true,
	PersistentPreRunE: loadAppConfig,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// The command context is cancelled on Ctrl+C so a pending login releases its
// callback port.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nowauth version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	var rateLimited *cli.RateLimitedError
	if errors.As(err, &rateLimited) {
		return ExitCodeRateLimited
	}

	return ExitCodeError
}

// loadAppConfig loads the configuration and initializes logging before any
// subcommand runs.
func loadAppConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		var cfgErr config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return errors.New(cfgErr.DetailedError())
		}
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	if debugMode {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.Format(cfg.LogFormat), cmd.ErrOrStderr())

	appConfig = cfg
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Configuration directory (default $XDG_CONFIG_HOME/nowauth)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(newVersionCmd())
}
