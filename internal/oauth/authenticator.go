package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"nowauth/internal/credentials"
	"nowauth/pkg/logging"
	pkgoauth "nowauth/pkg/oauth"
)

// DefaultRefreshMargin is how close to expiry a token is refreshed by
// AccessToken.
const DefaultRefreshMargin = time.Minute

// CredentialStore is the part of the credential store the Authenticator
// needs.
type CredentialStore interface {
	Get(id string) (credentials.Credential, bool)
	Set(id string, c credentials.Credential) error
}

// PasteFunc reads the redirect URL the user copied from the browser.
type PasteFunc func(ctx context.Context) (string, error)

// Config configures an Authenticator.
type Config struct {
	// CallbackPort is the loopback port for the callback listener.
	// Defaults to DefaultCallbackPort.
	CallbackPort int

	// CallbackTimeout defaults to DefaultCallbackTimeout.
	CallbackTimeout time.Duration

	// InstanceDomain is appended to bare instance names. Defaults to
	// pkgoauth.DefaultInstanceDomain.
	InstanceDomain string
}

// LoginRequest describes one login attempt.
type LoginRequest struct {
	// ProviderID is the store key. Defaults to the first label of the
	// instance host.
	ProviderID   string
	Instance     string
	ClientID     string
	ClientSecret string
}

// LoginResult is the outcome of a login attempt. Reason is set on failure.
type LoginResult struct {
	Success    bool
	ProviderID string
	Instance   string
	ExpiresAt  time.Time
	Reason     string
}

// Authenticator drives the PKCE login flow and token refresh, and persists
// the resulting credentials.
//
// One Authenticator runs at most one login at a time. A second Login while
// one is in flight fails with ErrFlowInProgress.
type Authenticator struct {
	cfg         Config
	store       CredentialStore
	tokens      *TokenClient
	out         io.Writer
	listen      ListenFunc
	openBrowser BrowserFunc
	now         func() time.Time

	active       atomic.Bool
	refreshGroup singleflight.Group
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithTokenClient sets the token client. Its rate limiter is shared by all
// flows of the Authenticator.
func WithTokenClient(tokens *TokenClient) AuthenticatorOption {
	return func(a *Authenticator) {
		a.tokens = tokens
	}
}

// WithOutput sets where the authorization URL and progress messages go.
func WithOutput(w io.Writer) AuthenticatorOption {
	return func(a *Authenticator) {
		a.out = w
	}
}

// WithBrowser sets the browser launcher. nil disables launching.
func WithBrowser(open BrowserFunc) AuthenticatorOption {
	return func(a *Authenticator) {
		a.openBrowser = open
	}
}

// WithListen overrides how the callback socket is bound.
func WithListen(listen ListenFunc) AuthenticatorOption {
	return func(a *Authenticator) {
		a.listen = listen
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator creates an Authenticator writing to store.
func NewAuthenticator(cfg Config, store CredentialStore, opts ...AuthenticatorOption) *Authenticator {
	if cfg.CallbackPort == 0 {
		cfg.CallbackPort = DefaultCallbackPort
	}
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}
	if cfg.InstanceDomain == "" {
		cfg.InstanceDomain = pkgoauth.DefaultInstanceDomain
	}

	a := &Authenticator{
		cfg:         cfg,
		store:       store,
		out:         io.Discard,
		openBrowser: OpenBrowser,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.tokens == nil {
		a.tokens = NewTokenClient()
	}

	return a
}

// Login runs the browser flow: validate input, start the callback listener,
// open the authorization URL, wait for the callback and persist the tokens.
//
// Input is validated before anything is bound or launched. The returned
// result is never nil; on failure Reason repeats the error text.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !a.active.CompareAndSwap(false, true) {
		return failed(req, ErrFlowInProgress)
	}
	defer a.active.Store(false)

	session, err := a.prepare(req)
	if err != nil {
		return failed(req, err)
	}

	creds := session.Credentials()
	server := NewCallbackServer(CallbackServerConfig{
		Port:     a.cfg.CallbackPort,
		State:    session.State,
		Timeout:  a.cfg.CallbackTimeout,
		Instance: session.Instance,
		Listen:   a.listen,
	})
	server.cfg.Exchange = func(ctx context.Context, code string) (*pkgoauth.TokenResponse, error) {
		return a.tokens.Exchange(ctx, creds, code, session.PKCE.CodeVerifier, server.RedirectURI())
	}

	redirectURI, err := server.Start(ctx)
	if err != nil {
		return a.finish(session, nil, err)
	}
	defer server.Stop()
	session.RedirectURI = redirectURI

	authURL := session.AuthorizationURL()
	logging.Debug("OAuth", "Flow %s started for %s", session.ID, session.Instance)

	fmt.Fprintf(a.out, "Open the following URL to authenticate with %s:\n\n  %s\n\n", session.Instance, authURL)
	if a.openBrowser != nil {
		if err := a.openBrowser(authURL); err != nil {
			logging.Warn("OAuth", "Could not open browser: %v", err)
			fmt.Fprintln(a.out, "Could not open a browser, open the URL above manually.")
		}
	}

	token, err := server.Wait(ctx)
	return a.finish(session, token, err)
}

// LoginManual runs the flow without a callback listener. The user opens the
// printed URL and pastes the URL the browser was redirected to; it is
// validated in the same order as a live callback.
func (a *Authenticator) LoginManual(ctx context.Context, req LoginRequest, paste PasteFunc) (*LoginResult, error) {
	if !a.active.CompareAndSwap(false, true) {
		return failed(req, ErrFlowInProgress)
	}
	defer a.active.Store(false)

	session, err := a.prepare(req)
	if err != nil {
		return failed(req, err)
	}
	session.RedirectURI = RedirectURIForPort(a.cfg.CallbackPort)

	fmt.Fprintf(a.out, "Open the following URL in a browser to authenticate with %s:\n\n  %s\n\n", session.Instance, session.AuthorizationURL())
	fmt.Fprintln(a.out, "After approving, copy the full URL from the browser address bar (it will fail to load) and paste it below.")

	pasted, err := paste(ctx)
	if err != nil {
		return a.finish(session, nil, err)
	}

	query, err := parseRedirect(pasted)
	if err != nil {
		return a.finish(session, nil, err)
	}

	code, err := validateCallback(query, session.State)
	if err != nil {
		if errors.Is(err, ErrStateMismatch) {
			logging.Audit("oauth_state_mismatch", "instance", session.Instance)
		}
		return a.finish(session, nil, err)
	}

	token, err := a.tokens.Exchange(ctx, session.Credentials(), code, session.PKCE.CodeVerifier, session.RedirectURI)
	return a.finish(session, token, err)
}

// Refresh exchanges the stored refresh token of providerID for a new access
// token and rewrites the record. The previous refresh token is kept unless
// the provider rotated it. Concurrent refreshes of one provider share a
// single token endpoint call.
func (a *Authenticator) Refresh(ctx context.Context, providerID string) (credentials.DomainOAuth, error) {
	v, err, _ := a.refreshGroup.Do(providerID, func() (any, error) {
		return a.refresh(ctx, providerID)
	})
	if err != nil {
		return credentials.DomainOAuth{}, err
	}
	return v.(credentials.DomainOAuth), nil
}

// AccessToken returns a usable access token for providerID, refreshing it
// first when it expires within DefaultRefreshMargin.
func (a *Authenticator) AccessToken(ctx context.Context, providerID string) (string, error) {
	record, err := a.lookup(providerID)
	if err != nil {
		return "", err
	}

	if record.AccessToken != "" && !record.IsExpired(a.now(), DefaultRefreshMargin) {
		return record.AccessToken, nil
	}

	refreshed, err := a.Refresh(ctx, providerID)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (a *Authenticator) refresh(ctx context.Context, providerID string) (credentials.DomainOAuth, error) {
	record, err := a.lookup(providerID)
	if err != nil {
		return credentials.DomainOAuth{}, err
	}
	if record.RefreshToken == "" {
		return credentials.DomainOAuth{}, fmt.Errorf("%w for %q", ErrNoRefreshToken, providerID)
	}

	creds := ClientCredentials{
		Instance:     record.Instance,
		ClientID:     record.ClientID,
		ClientSecret: record.ClientSecret,
	}

	token, err := a.tokens.Refresh(ctx, creds, record.RefreshToken)
	if err != nil {
		logging.Audit("oauth_refresh_failed", "provider", providerID, "error", err.Error())
		return credentials.DomainOAuth{}, err
	}

	record.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		record.RefreshToken = token.RefreshToken
	}
	record.ExpiresAt = token.ExpiresAtMillis(a.now())

	if err := a.store.Set(providerID, record); err != nil {
		return credentials.DomainOAuth{}, err
	}

	logging.Audit("oauth_token_refreshed",
		"provider", providerID,
		"instance", record.Instance,
		"rotated", token.RefreshToken != "",
	)
	return record, nil
}

func (a *Authenticator) lookup(providerID string) (credentials.DomainOAuth, error) {
	c, ok := a.store.Get(providerID)
	if !ok {
		return credentials.DomainOAuth{}, fmt.Errorf("%w for %q", ErrNotFound, providerID)
	}
	record, ok := c.(credentials.DomainOAuth)
	if !ok {
		return credentials.DomainOAuth{}, fmt.Errorf("%w for %q: record is of type %s", ErrNotFound, providerID, c.Type())
	}
	return record, nil
}

// prepare validates the request and generates the flow secrets. Nothing is
// bound, launched or sent.
func (a *Authenticator) prepare(req LoginRequest) (*FlowSession, error) {
	instance, err := pkgoauth.NormalizeInstanceURL(req.Instance, a.cfg.InstanceDomain)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ClientID) == "" {
		return nil, errors.New("client id is required")
	}

	if err := pkgoauth.ValidateClientSecret(req.ClientSecret); err != nil {
		return nil, err
	}

	providerID := req.ProviderID
	if providerID == "" {
		providerID = DefaultProviderID(instance)
	}

	return newFlowSession(providerID, ClientCredentials{
		Instance:     instance,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	}, a.now())
}

// finish persists a successful flow and builds the result.
func (a *Authenticator) finish(session *FlowSession, token *pkgoauth.TokenResponse, err error) (*LoginResult, error) {
	result := &LoginResult{
		ProviderID: session.ProviderID,
		Instance:   session.Instance,
	}

	if err == nil {
		record := credentials.DomainOAuth{
			Instance:     session.Instance,
			ClientID:     session.ClientID,
			ClientSecret: session.ClientSecret.Value(),
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.ExpiresAtMillis(a.now()),
		}
		err = a.store.Set(session.ProviderID, record)
		if err == nil {
			result.Success = true
			result.ExpiresAt = record.Expiry()
		}
	}

	if err != nil {
		result.Reason = err.Error()
		logging.Audit("oauth_login_failed",
			"flow", session.ID,
			"provider", session.ProviderID,
			"instance", session.Instance,
			"error", err.Error(),
		)
		return result, err
	}

	logging.Audit("oauth_login_succeeded",
		"flow", session.ID,
		"provider", session.ProviderID,
		"instance", session.Instance,
		"duration", a.now().Sub(session.StartedAt).Round(time.Millisecond).String(),
	)
	return result, nil
}

func failed(req LoginRequest, err error) (*LoginResult, error) {
	return &LoginResult{
		ProviderID: req.ProviderID,
		Instance:   req.Instance,
		Reason:     err.Error(),
	}, err
}

// DefaultProviderID derives a store key from an instance URL: the first
// label of its host, e.g. "dev12345" for https://dev12345.service-now.com.
func DefaultProviderID(instance string) string {
	u, err := url.Parse(instance)
	if err != nil || u.Hostname() == "" {
		return instance
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

func parseRedirect(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingCode
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	if u.RawQuery == "" {
		// Accept a bare query string as well as a full URL.
		return url.ParseQuery(strings.TrimPrefix(raw, "?"))
	}
	return u.Query(), nil
}
