package cli

import (
	"context"
	"errors"

	"nowauth/internal/oauth"
	pkgoauth "nowauth/pkg/oauth"
)

// ClassifyAuthError maps an error from the oauth package onto the CLI error
// types so that commands report actionable guidance and exit codes.
//
// Input errors (weak secret, invalid instance) and cancellation are returned
// unchanged.
func ClassifyAuthError(provider, instance string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *oauth.RateLimitError
	var tokenErr *oauth.TokenEndpointError
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrPromptCancelled),
		errors.Is(err, pkgoauth.ErrWeakSecret),
		errors.Is(err, pkgoauth.ErrInvalidInstance):
		return err
	case errors.As(err, &rateErr):
		return &RateLimitedError{RetryAfter: rateErr.RetryAfter, Reason: err}
	case errors.Is(err, oauth.ErrNotFound), errors.Is(err, oauth.ErrNoRefreshToken):
		return &AuthRequiredError{Provider: provider, Reason: err}
	case errors.As(err, &tokenErr):
		if tokenErr.ErrorCode == "invalid_grant" {
			return &AuthExpiredError{Provider: provider, Instance: instance}
		}
		return &AuthFailedError{Provider: provider, Reason: err}
	case errors.Is(err, oauth.ErrTokenEndpoint):
		if connErr := ClassifyConnectionError(err, instance); connErr != nil {
			return &AuthFailedError{Provider: provider, Reason: connErr}
		}
	}
	return &AuthFailedError{Provider: provider, Reason: err}
}
