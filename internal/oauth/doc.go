// Package oauth implements the nowauth OAuth 2.0 Authorization Code flow with
// PKCE against an instance's /oauth_auth.do and /oauth_token.do endpoints.
//
// # Architecture
//
//   - Authenticator drives a login: it validates input, starts the callback
//     listener, opens the browser and persists the tokens
//   - CallbackServer is a single-shot loopback HTTP server that checks the
//     CSRF state before anything else and exchanges the code exactly once
//   - TokenClient performs the code and refresh grants, gated by a
//     fixed-window RateLimiter
//
// # Flow
//
//	auth := oauth.NewAuthenticator(oauth.Config{}, store)
//	result, err := auth.Login(ctx, oauth.LoginRequest{
//	    Instance:     "dev12345",
//	    ClientID:     clientID,
//	    ClientSecret: clientSecret,
//	})
//
// The callback listener binds 127.0.0.1:3005 and the redirect URI is
// http://localhost:3005/callback; both must be registered with the
// instance's OAuth application. A flow resolves exactly once: with the
// first request to /callback or after five minutes, whichever comes first.
//
// # Security
//
//   - State is 16 random bytes and compared in constant time
//   - Only the S256 PKCE method is used
//   - Client secrets shorter than 32 characters or containing common weak
//     patterns are rejected before anything is bound or sent
//   - Tokens and secrets are never logged
//
// No call is retried automatically. Every failure returns to the caller,
// which may start a fresh flow.
package oauth
