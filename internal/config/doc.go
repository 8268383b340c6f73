// Package config provides configuration management for nowauth.
//
// Configuration is loaded from a single directory, by default
// $XDG_CONFIG_HOME/nowauth or ~/.config/nowauth, overridable with the
// --config-path flag.
//
// # Sources
//
// Later sources win:
//   - built-in defaults (DefaultConfig)
//   - config.yaml in the configuration directory
//   - NOWAUTH_* environment variables
//
// A .env file in the configuration directory is loaded into the process
// environment before the overrides are applied. Variables already set in
// the environment take precedence over the file. The .env file may also carry
// NOWAUTH_INSTANCE, NOWAUTH_CLIENT_ID and NOWAUTH_CLIENT_SECRET, which the
// auth commands use as login defaults.
//
// # Example config.yaml
//
//	callbackPort: 3005
//	callbackTimeout: 5m
//	instanceDomain: service-now.com
//	httpTimeout: 30s
//	rateLimit:
//	  maxRequests: 10
//	  window: 60s
//	logLevel: info
//	logFormat: text
//	openBrowser: true
//
// The callback port must match the redirect URI registered for the OAuth
// application on the instance (http://localhost:3005/callback by default).
package config
