package oauth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenEndpointError(t *testing.T) {
	tests := []struct {
		name string
		err  *TokenEndpointError
		want string
	}{
		{"code and description", &TokenEndpointError{ErrorCode: "invalid_grant", Description: "code expired"}, "token endpoint request failed: invalid_grant: code expired"},
		{"code only", &TokenEndpointError{StatusCode: 400, ErrorCode: "invalid_request"}, "token endpoint request failed: invalid_request"},
		{"status and body", &TokenEndpointError{StatusCode: 502, Body: "bad gateway"}, "token endpoint request failed: HTTP 502: bad gateway"},
		{"body only", &TokenEndpointError{Body: "no access_token"}, "token endpoint request failed: no access_token"},
		{"html body", &TokenEndpointError{StatusCode: 503, Body: "<html><body>\n<h1>Instance Hibernating</h1>\n</body></html>"}, "token endpoint request failed: HTTP 503: Instance Hibernating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrTokenEndpoint)
		})
	}
}

func TestRateLimitError(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &RateLimitError{RetryAfter: 42*time.Second + 300*time.Millisecond})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry in 42s")

	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))

	short := &RateLimitError{RetryAfter: time.Millisecond}
	assert.Equal(t, "token endpoint rate limit exceeded, retry in 1s", short.Error())
}

func TestAuthorizationError(t *testing.T) {
	err := &AuthorizationError{Code: "access_denied", Description: "user cancelled"}
	assert.ErrorIs(t, err, ErrAuthorizationDenied)
	assert.Equal(t, "authorization denied by provider: access_denied (user cancelled)", err.Error())

	assert.Equal(t, "authorization denied by provider: server_error", (&AuthorizationError{Code: "server_error"}).Error())
}
