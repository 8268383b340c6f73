package oauth

import (
	"time"
)

// TokenResponse is the JSON body returned by the token endpoint for both the
// authorization code and the refresh token grants.
type TokenResponse struct {
	// AccessToken is the bearer token used for API calls.
	AccessToken string `json:"access_token"`

	// RefreshToken is present on the code exchange and, when the provider
	// rotates refresh tokens, on refresh responses.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// Scope is the granted scope, space separated.
	Scope string `json:"scope,omitempty"`

	// Error and ErrorDescription are set by providers that report OAuth
	// errors in the body, sometimes with a 2xx status.
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ExpiresAtMillis returns the absolute expiry in epoch milliseconds,
// computed as now + expires_in*1000. It returns 0 when the provider sent no
// lifetime.
func (r *TokenResponse) ExpiresAtMillis(now time.Time) int64 {
	if r.ExpiresIn <= 0 {
		return 0
	}
	return now.UnixMilli() + r.ExpiresIn*1000
}
