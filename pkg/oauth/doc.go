// Package oauth provides the protocol pieces of the nowauth PKCE flow that do
// not depend on local state: secret material, authorization URL building,
// instance URL normalization, client secret validation and the token
// endpoint response type.
//
// # Core Components
//
//   - GenerateState / GeneratePKCE: CSRF state and S256 PKCE pairs (RFC 7636)
//   - BuildAuthorizationURL / Endpoint: instance authorization and token endpoints
//   - NormalizeInstanceURL: "dev12345" -> "https://dev12345.service-now.com"
//   - ValidateClientSecret: length and weak-pattern checks
//   - TokenResponse: token endpoint body with absolute expiry helpers
//
// # Usage
//
//	instance, err := oauth.NormalizeInstanceURL("dev12345", "")
//	state, err := oauth.GenerateState()
//	pkce, err := oauth.GeneratePKCE()
//	authURL := oauth.BuildAuthorizationURL(instance, clientID, redirectURI, state, pkce.CodeChallenge)
//
// The stateful parts (callback listener, token client, rate limiter) live in
// internal/oauth.
package oauth
