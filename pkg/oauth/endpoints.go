package oauth

import (
	"strings"

	"golang.org/x/oauth2"
)

const (
	// AuthorizePath is the instance-relative authorization endpoint.
	AuthorizePath = "/oauth_auth.do"

	// TokenPath is the instance-relative token endpoint used for both the
	// authorization code exchange and refresh.
	TokenPath = "/oauth_token.do"
)

// Endpoint returns the OAuth endpoints of a normalized instance URL.
// The client secret is posted in the form body, so AuthStyleInParams is used.
func Endpoint(instance string) oauth2.Endpoint {
	base := strings.TrimRight(instance, "/")
	return oauth2.Endpoint{
		AuthURL:   base + AuthorizePath,
		TokenURL:  base + TokenPath,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// BuildAuthorizationURL composes the authorization URL for a PKCE flow.
//
// The result carries response_type=code, client_id, redirect_uri, state,
// code_challenge and code_challenge_method=S256. No scope is requested.
// The instance must already be normalized (see NormalizeInstanceURL).
func BuildAuthorizationURL(instance, clientID, redirectURI, state, challenge string) string {
	cfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Endpoint:    Endpoint(instance),
	}

	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", ChallengeMethodS256),
	)
}
