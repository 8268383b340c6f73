// Package cli provides the terminal-facing helpers used by the nowauth
// commands.
//
// # Errors
//
// ClassifyAuthError turns errors from the oauth package into
// AuthRequiredError, AuthExpiredError, AuthFailedError or RateLimitedError.
// Each carries the command to run next, and the cmd package maps them onto
// exit codes. Transport failures reaching the token endpoint are further
// classified with ClassifyConnectionError (TLS, DNS, timeout, network).
//
// # Output
//
// Credential records are summarized with SummarizeCredentials, which masks
// every secret down to its last four characters, and printed with
// RenderCredentials as a kubectl-style table (go-pretty), JSON or YAML.
//
// # Interaction
//
// Progress wraps a spinner for the wait on the browser callback; its Writer
// keeps messages printed during the wait from mixing with the animation.
// Prompter reads pasted redirect URLs and masked secrets with readline and
// reports Ctrl+C and Ctrl+D as ErrPromptCancelled.
package cli
