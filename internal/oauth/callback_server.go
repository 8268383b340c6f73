package oauth

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/sprig/v3"

	"nowauth/pkg/logging"
	pkgoauth "nowauth/pkg/oauth"
)

const (
	// DefaultCallbackPort is the fixed loopback port for the OAuth callback.
	DefaultCallbackPort = 3005

	// CallbackPath is the path the provider redirects to.
	CallbackPath = "/callback"

	// DefaultCallbackTimeout is how long to wait for the callback.
	DefaultCallbackTimeout = 5 * time.Minute
)

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTemplate = template.Must(template.New("success").Funcs(sprig.HtmlFuncMap()).Parse(callbackSuccessHTML))
	errorTemplate   = template.Must(template.New("error").Funcs(sprig.HtmlFuncMap()).Parse(callbackErrorHTML))
)

// errServerStopped resolves a flow whose listener was stopped by the caller.
var errServerStopped = errors.New("callback server stopped")

// ExchangeFunc trades a validated authorization code for tokens.
type ExchangeFunc func(ctx context.Context, code string) (*pkgoauth.TokenResponse, error)

// ListenFunc binds the callback socket. It matches net.Listen.
type ListenFunc func(network, address string) (net.Listener, error)

// CallbackServerConfig configures a CallbackServer.
type CallbackServerConfig struct {
	// Port is the loopback port to bind. 0 binds an ephemeral port.
	Port int

	// State is the CSRF state issued for this flow. Required.
	State string

	// Exchange is called with the code of the first valid callback. Required.
	Exchange ExchangeFunc

	// Timeout bounds the wait for a callback. Defaults to
	// DefaultCallbackTimeout.
	Timeout time.Duration

	// Instance is shown on the result pages.
	Instance string

	// Listen overrides net.Listen.
	Listen ListenFunc
}

// CallbackServer is a single-shot loopback HTTP server for the OAuth
// redirect.
//
// The first request to CallbackPath resolves the flow, as does the timeout,
// whichever comes first. Resolution happens exactly once and the socket is
// closed before the result becomes visible to Wait. Requests to other paths
// get a 404 and do not affect the flow; so does any callback that arrives
// after resolution.
type CallbackServer struct {
	cfg CallbackServerConfig

	server      *http.Server
	listener    net.Listener
	redirectURI string
	timer       *time.Timer
	ctx         context.Context

	// claimed is set by the first callback request or the timeout.
	claimed     atomic.Bool
	resolveOnce sync.Once
	stopOnce    sync.Once
	closeOnce   sync.Once
	done        chan struct{}
	token       *pkgoauth.TokenResponse
	err         error
}

// NewCallbackServer creates a callback server. Call Start to bind it.
func NewCallbackServer(cfg CallbackServerConfig) *CallbackServer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallbackTimeout
	}
	if cfg.Listen == nil {
		cfg.Listen = net.Listen
	}

	return &CallbackServer{
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// RedirectURIForPort returns the redirect URI for a callback port.
func RedirectURIForPort(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// Start binds the loopback socket, starts serving and arms the timeout.
// It returns the redirect URI to use in the authorization request.
// A bind failure is returned as ErrListenerStartup.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	if s.cfg.State == "" {
		return "", fmt.Errorf("%w: state is required", ErrListenerStartup)
	}
	if s.cfg.Exchange == nil {
		return "", fmt.Errorf("%w: exchange function is required", ErrListenerStartup)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)

	listener, err := s.cfg.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w on %s: %w", ErrListenerStartup, addr, err)
	}

	s.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port
	s.redirectURI = RedirectURIForPort(port)
	s.ctx = context.WithoutCancel(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		http.NotFound(w, r)
	})

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.timer = time.AfterFunc(s.cfg.Timeout, s.onTimeout)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed && !s.claimed.Load() {
			logging.Error("CallbackServer", err, "Callback server stopped unexpectedly")
			s.closeListener()
			s.resolve(nil, fmt.Errorf("%w: %w", ErrListenerStartup, err))
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	logging.Info("CallbackServer", "Listening for OAuth callback on %s", s.redirectURI)
	return s.redirectURI, nil
}

// RedirectURI returns the redirect URI once the server has started.
func (s *CallbackServer) RedirectURI() string {
	return s.redirectURI
}

// Port returns the bound port once the server has started.
func (s *CallbackServer) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Wait blocks until the flow resolves or ctx is done. Cancelling ctx stops
// the server.
func (s *CallbackServer) Wait(ctx context.Context) (*pkgoauth.TokenResponse, error) {
	select {
	case <-s.done:
		return s.token, s.err
	case <-ctx.Done():
		s.Stop()
		return nil, ctx.Err()
	}
}

// Done is closed when the flow has resolved.
func (s *CallbackServer) Done() <-chan struct{} {
	return s.done
}

// Stop closes the socket and shuts the server down. A flow that has not
// resolved yet resolves as stopped. Stop is safe to call more than once and
// concurrently with the timeout.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		s.claimed.Store(true)
		if s.timer != nil {
			s.timer.Stop()
		}
		s.closeListener()
		s.resolve(nil, errServerStopped)

		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
	})
}

func (s *CallbackServer) onTimeout() {
	if !s.claimed.CompareAndSwap(false, true) {
		return
	}
	logging.Warn("CallbackServer", "No OAuth callback received within %s", s.cfg.Timeout)
	s.closeListener()
	s.resolve(nil, fmt.Errorf("%w after %s", ErrCallbackTimeout, s.cfg.Timeout))
	go s.Stop()
}

// handleCallback processes the first request to the callback path.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)

	if !s.claimed.CompareAndSwap(false, true) {
		http.NotFound(w, r)
		return
	}
	s.timer.Stop()

	token, err := s.process(r.URL.Query())

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, ErrStateMismatch), errors.Is(err, ErrAuthorizationDenied), errors.Is(err, ErrMissingCode):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	s.render(w, status, err)

	s.closeListener()
	s.resolve(token, err)
	go s.Stop()
}

// process validates the callback and, if valid, runs the exchange.
func (s *CallbackServer) process(query url.Values) (*pkgoauth.TokenResponse, error) {
	code, err := validateCallback(query, s.cfg.State)
	if err != nil {
		if errors.Is(err, ErrStateMismatch) {
			logging.Audit("oauth_state_mismatch", "instance", s.cfg.Instance)
		}
		logging.Warn("CallbackServer", "Rejected OAuth callback: %v", err)
		return nil, err
	}

	token, err := s.cfg.Exchange(s.ctx, code)
	if err != nil {
		logging.Error("CallbackServer", err, "Token exchange failed")
		return nil, err
	}
	return token, nil
}

// validateCallback checks callback query parameters in order: state, then
// error, then code. It returns the authorization code.
func validateCallback(query url.Values, expectedState string) (string, error) {
	state := query.Get("state")
	if expectedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return "", ErrStateMismatch
	}

	if errCode := query.Get("error"); errCode != "" {
		return "", &AuthorizationError{
			Code:        errCode,
			Description: query.Get("error_description"),
		}
	}

	code := query.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}

	return code, nil
}

func (s *CallbackServer) render(w http.ResponseWriter, status int, err error) {
	tmpl := successTemplate
	data := map[string]string{
		"Instance": s.cfg.Instance,
	}
	if err != nil {
		tmpl = errorTemplate
		data["Title"] = pageTitle(err)
		data["Detail"] = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if execErr := tmpl.Execute(w, data); execErr != nil {
		logging.Error("CallbackServer", execErr, "Failed to render callback page")
	}
}

func pageTitle(err error) string {
	switch {
	case errors.Is(err, ErrStateMismatch):
		return "Security check failed"
	case errors.Is(err, ErrAuthorizationDenied):
		return "Authorization denied"
	case errors.Is(err, ErrMissingCode):
		return "Invalid callback"
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts"
	default:
		return "Token exchange failed"
	}
}

func (s *CallbackServer) resolve(token *pkgoauth.TokenResponse, err error) {
	s.resolveOnce.Do(func() {
		s.token = token
		s.err = err
		close(s.done)
	})
}

func (s *CallbackServer) closeListener() {
	s.closeOnce.Do(func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}
