// Package logging provides subsystem-tagged structured logging for nowauth.
//
// It is a thin facade over log/slog: every entry carries a "subsystem"
// attribute so output from the callback listener, the token client and the
// credential store can be told apart.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("OAuth", "Waiting for callback on %s", redirectURI)
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Warn("Store", "Ignoring unreadable credentials file")
//	logging.Error("OAuth", err, "Token exchange failed")
//
// Security-relevant events (credential stored, credential removed) go through
// Audit, which prefixes the message with SECURITY_AUDIT and tags it with an
// event name:
//
//	logging.Audit("credential_stored", "provider", id, "has_refresh_token", true)
//
// Token values, client secrets and passwords are never logged.
package logging
