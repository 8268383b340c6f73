package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nowauth/pkg/logging"
	pkgoauth "nowauth/pkg/oauth"
)

const (
	// DefaultHTTPTimeout is the default timeout for token endpoint requests.
	DefaultHTTPTimeout = 30 * time.Second

	// maxTokenResponseSize caps how much of a token response is read.
	maxTokenResponseSize = 1 << 20
)

// ClientCredentials identifies the OAuth client on an instance.
type ClientCredentials struct {
	// Instance is the normalized instance base URL.
	Instance     string
	ClientID     string
	ClientSecret string
}

// TokenClient calls the instance token endpoint for the authorization code
// and refresh token grants.
//
// Every call is gated by the rate limiter before any request is built. Calls
// are never retried; a failed call is returned to the caller as is.
type TokenClient struct {
	httpClient *http.Client
	limiter    *RateLimiter
}

// TokenClientOption configures a TokenClient.
type TokenClientOption func(*TokenClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) TokenClientOption {
	return func(c *TokenClient) {
		c.httpClient = httpClient
	}
}

// WithRateLimiter sets the limiter consulted before each call.
func WithRateLimiter(limiter *RateLimiter) TokenClientOption {
	return func(c *TokenClient) {
		c.limiter = limiter
	}
}

// NewTokenClient creates a token client with its own rate limiter.
func NewTokenClient(opts ...TokenClientOption) *TokenClient {
	c := &TokenClient{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		limiter:    NewRateLimiter(DefaultRateLimitMax, DefaultRateLimitWindow),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Exchange trades an authorization code for tokens. redirectURI must be the
// exact value used when building the authorization URL. A response without
// a refresh token is rejected.
func (c *TokenClient) Exchange(ctx context.Context, creds ClientCredentials, code, verifier, redirectURI string) (*pkgoauth.TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"code_verifier": {verifier},
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
	}

	token, err := c.doTokenRequest(ctx, creds.Instance, data)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		return nil, &TokenEndpointError{
			StatusCode: http.StatusOK,
			Body:       "response did not contain a refresh_token",
		}
	}
	return token, nil
}

// Refresh obtains a new access token with a refresh token. The response
// carries a refresh token only when the provider rotated it.
func (c *TokenClient) Refresh(ctx context.Context, creds ClientCredentials, refreshToken string) (*pkgoauth.TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
	}

	return c.doTokenRequest(ctx, creds.Instance, data)
}

// doTokenRequest performs a token endpoint request.
func (c *TokenClient) doTokenRequest(ctx context.Context, instance string, data url.Values) (*pkgoauth.TokenResponse, error) {
	grant := data.Get("grant_type")

	if !c.limiter.Allow() {
		retryAfter := c.limiter.RetryAfter()
		logging.Warn("TokenClient", "Rate limit reached for %s grant, retry in %s", grant, retryAfter.Round(time.Second))
		return nil, &RateLimitError{RetryAfter: retryAfter}
	}

	tokenURL := pkgoauth.Endpoint(instance).TokenURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	logging.Debug("TokenClient", "POST %s (grant_type=%s)", tokenURL, grant)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenEndpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTokenEndpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Debug("TokenClient", "Token request failed with status %d", resp.StatusCode)
		tokenErr := &TokenEndpointError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		var oauthErr pkgoauth.TokenResponse
		if json.Unmarshal(body, &oauthErr) == nil {
			tokenErr.ErrorCode = oauthErr.Error
			tokenErr.Description = oauthErr.ErrorDescription
		}
		return nil, tokenErr
	}

	var token pkgoauth.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrTokenEndpoint, err)
	}

	if token.Error != "" {
		return nil, &TokenEndpointError{
			ErrorCode:   token.Error,
			Description: token.ErrorDescription,
		}
	}

	if token.AccessToken == "" {
		return nil, &TokenEndpointError{
			StatusCode: resp.StatusCode,
			Body:       "response did not contain an access_token",
		}
	}

	return &token, nil
}
