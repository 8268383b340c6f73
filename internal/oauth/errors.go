package oauth

import (
	"errors"
	"fmt"
	"time"

	"nowauth/pkg/strings"
)

var (
	// ErrStateMismatch is returned when the callback state does not match the
	// state issued for the flow. The code is never exchanged.
	ErrStateMismatch = errors.New("state mismatch: possible CSRF attack")

	// ErrAuthorizationDenied is returned when the provider redirected back
	// with an error parameter.
	ErrAuthorizationDenied = errors.New("authorization denied by provider")

	// ErrMissingCode is returned when the callback carries neither an error
	// nor an authorization code.
	ErrMissingCode = errors.New("authorization code missing from callback")

	// ErrCallbackTimeout is returned when no callback arrived in time.
	ErrCallbackTimeout = errors.New("timed out waiting for authorization callback")

	// ErrListenerStartup is returned when the callback listener cannot bind.
	ErrListenerStartup = errors.New("failed to start callback listener")

	// ErrFlowInProgress is returned when Login is called while another flow
	// on the same Authenticator has not resolved.
	ErrFlowInProgress = errors.New("an authorization flow is already in progress")

	// ErrRateLimited is returned when the token endpoint call budget for the
	// current window is exhausted.
	ErrRateLimited = errors.New("token endpoint rate limit exceeded")

	// ErrTokenEndpoint is the base error for failed token endpoint calls.
	ErrTokenEndpoint = errors.New("token endpoint request failed")

	// ErrNotFound is returned when no OAuth credential is stored for a
	// provider id.
	ErrNotFound = errors.New("no OAuth credential stored")

	// ErrNoRefreshToken is returned when a stored credential cannot be
	// refreshed because it has no refresh token.
	ErrNoRefreshToken = errors.New("stored credential has no refresh token")
)

// AuthorizationError carries the error parameters returned on the callback.
type AuthorizationError struct {
	Code        string
	Description string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrAuthorizationDenied, e.Code, e.Description)
	}
	return fmt.Sprintf("%s: %s", ErrAuthorizationDenied, e.Code)
}

// Unwrap returns ErrAuthorizationDenied.
func (e *AuthorizationError) Unwrap() error {
	return ErrAuthorizationDenied
}

// RateLimitError reports a denied token endpoint call and how long until the
// window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	wait := e.RetryAfter.Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return fmt.Sprintf("%s, retry in %s", ErrRateLimited, wait)
}

// Unwrap returns ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// TokenEndpointError is a failed token endpoint response.
//
// StatusCode and Body are set for non-2xx responses. ErrorCode and
// Description are set when the body carried an OAuth error. Body is kept in
// full; Error shortens it.
type TokenEndpointError struct {
	StatusCode  int
	Body        string
	ErrorCode   string
	Description string
}

// Error implements the error interface.
func (e *TokenEndpointError) Error() string {
	switch {
	case e.ErrorCode != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", ErrTokenEndpoint, e.ErrorCode, e.Description)
	case e.ErrorCode != "":
		return fmt.Sprintf("%s: %s", ErrTokenEndpoint, e.ErrorCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d: %s", ErrTokenEndpoint, e.StatusCode, strings.Summarize(e.Body, strings.DefaultSummaryMaxLen))
	default:
		return fmt.Sprintf("%s: %s", ErrTokenEndpoint, strings.Summarize(e.Body, strings.DefaultSummaryMaxLen))
	}
}

// Unwrap returns ErrTokenEndpoint.
func (e *TokenEndpointError) Unwrap() error {
	return ErrTokenEndpoint
}
