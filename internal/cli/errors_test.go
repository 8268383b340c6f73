package cli

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"nowauth/internal/oauth"
	pkgoauth "nowauth/pkg/oauth"
)

func TestAuthRequiredError(t *testing.T) {
	t.Run("error message includes provider and guidance", func(t *testing.T) {
		err := &AuthRequiredError{Provider: "dev12345"}
		msg := err.Error()

		if !strings.Contains(msg, "dev12345") {
			t.Error("expected error message to contain provider")
		}
		if !strings.Contains(msg, "nowauth auth login --provider dev12345") {
			t.Error("expected error message to contain login command")
		}
		if !strings.Contains(msg, "nowauth credentials list") {
			t.Error("expected error message to contain list command")
		}
	})

	t.Run("without provider points at login", func(t *testing.T) {
		msg := (&AuthRequiredError{}).Error()

		if !strings.Contains(msg, "No OAuth credential stored") {
			t.Error("expected generic message")
		}
		if !strings.Contains(msg, "nowauth auth login --instance") {
			t.Error("expected error message to contain login command")
		}
	})

	t.Run("Is returns true for same type", func(t *testing.T) {
		err1 := &AuthRequiredError{Provider: "a"}
		err2 := &AuthRequiredError{Provider: "b"}

		if !err1.Is(err2) {
			t.Error("expected Is to return true for same type")
		}
	})

	t.Run("Is returns false for different type", func(t *testing.T) {
		err := &AuthRequiredError{Provider: "a"}

		if err.Is(errors.New("some error")) {
			t.Error("expected Is to return false for different type")
		}
	})

	t.Run("errors.Is works with wrapped error", func(t *testing.T) {
		wrappedErr := fmt.Errorf("wrapped: %w", &AuthRequiredError{Provider: "a"})

		if !errors.Is(wrappedErr, &AuthRequiredError{}) {
			t.Error("expected errors.Is to find wrapped AuthRequiredError")
		}
	})

	t.Run("Unwrap exposes the reason", func(t *testing.T) {
		err := &AuthRequiredError{Provider: "a", Reason: oauth.ErrNotFound}

		if !errors.Is(err, oauth.ErrNotFound) {
			t.Error("expected errors.Is to find the reason")
		}
	})
}

func TestAuthExpiredError(t *testing.T) {
	t.Run("error message includes provider and guidance", func(t *testing.T) {
		err := &AuthExpiredError{Provider: "dev12345", Instance: "https://dev12345.service-now.com"}
		msg := err.Error()

		if !strings.Contains(msg, "https://dev12345.service-now.com") {
			t.Error("expected error message to contain instance")
		}
		if !strings.Contains(msg, "nowauth auth login") {
			t.Error("expected error message to contain login command")
		}
		if !strings.Contains(msg, "nowauth auth refresh dev12345") {
			t.Error("expected error message to contain refresh command")
		}
		if !strings.Contains(msg, "expired") {
			t.Error("expected error message to mention 'expired'")
		}
	})

	t.Run("Is returns false for AuthRequiredError", func(t *testing.T) {
		err := &AuthExpiredError{Provider: "a"}

		if err.Is(&AuthRequiredError{}) {
			t.Error("expected Is to return false for AuthRequiredError")
		}
	})
}

func TestAuthFailedError(t *testing.T) {
	reason := errors.New("state mismatch")
	err := &AuthFailedError{Provider: "dev12345", Reason: reason}

	t.Run("error message includes provider and reason", func(t *testing.T) {
		msg := err.Error()
		if !strings.Contains(msg, "dev12345") {
			t.Error("expected error message to contain provider")
		}
		if !strings.Contains(msg, "state mismatch") {
			t.Error("expected error message to contain reason")
		}
		if !strings.Contains(msg, "nowauth auth login") {
			t.Error("expected error message to contain retry guidance")
		}
	})

	t.Run("Unwrap returns underlying error", func(t *testing.T) {
		if err.Unwrap() != reason {
			t.Error("expected Unwrap to return the reason")
		}
		if !errors.Is(err, reason) {
			t.Error("expected errors.Is to find the reason")
		}
	})

	t.Run("Is returns true for same type", func(t *testing.T) {
		if !errors.Is(fmt.Errorf("wrapped: %w", err), &AuthFailedError{}) {
			t.Error("expected errors.Is to find wrapped AuthFailedError")
		}
	})
}

func TestRateLimitedError(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter time.Duration
		want       string
	}{
		{"rounds to seconds", 41600 * time.Millisecond, "Try again in 42s."},
		{"never below one second", 10 * time.Millisecond, "Try again in 1s."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &RateLimitedError{RetryAfter: tt.retryAfter}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestConnectionErrorType(t *testing.T) {
	tests := []struct {
		errType  ConnectionErrorType
		expected string
	}{
		{ConnectionErrorTLS, "TLS certificate error"},
		{ConnectionErrorNetwork, "Network error"},
		{ConnectionErrorTimeout, "Connection timeout"},
		{ConnectionErrorDNS, "DNS resolution error"},
		{ConnectionErrorUnknown, "Connection error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o wait exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyConnectionError(t *testing.T) {
	const instance = "https://dev1.service-now.com"

	t.Run("nil error returns nil", func(t *testing.T) {
		if ClassifyConnectionError(nil, instance) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("plain error returns nil", func(t *testing.T) {
		if ClassifyConnectionError(errors.New("boom"), instance) != nil {
			t.Error("expected nil for a non-transport error")
		}
	})

	tests := []struct {
		name string
		err  error
		want ConnectionErrorType
	}{
		{
			name: "x509 certificate error is classified as TLS",
			err:  fmt.Errorf("post: %w", x509.UnknownAuthorityError{}),
			want: ConnectionErrorTLS,
		},
		{
			name: "DNS error",
			err:  &url.Error{Op: "Post", URL: instance, Err: &net.DNSError{Err: "no such host", Name: "dev1.service-now.com"}},
			want: ConnectionErrorDNS,
		},
		{
			name: "net.Error timeout",
			err:  &url.Error{Op: "Post", URL: instance, Err: timeoutError{}},
			want: ConnectionErrorTimeout,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			want: ConnectionErrorNetwork,
		},
		{
			name: "other url.Error",
			err:  &url.Error{Op: "Post", URL: instance, Err: errors.New("malformed HTTP response")},
			want: ConnectionErrorUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connErr := ClassifyConnectionError(tt.err, instance)
			if connErr == nil {
				t.Fatal("expected a ConnectionError")
			}
			if connErr.Type != tt.want {
				t.Errorf("expected %v, got %v", tt.want, connErr.Type)
			}
			if connErr.Instance != instance {
				t.Errorf("expected instance %q, got %q", instance, connErr.Instance)
			}
			if !errors.Is(connErr, tt.err) {
				t.Error("expected the reason to be unwrappable")
			}
			if !strings.Contains(connErr.Error(), instance) {
				t.Error("expected error message to contain instance")
			}
		})
	}
}

func TestClassifyAuthError(t *testing.T) {
	const provider = "dev1"
	const instance = "https://dev1.service-now.com"

	t.Run("nil stays nil", func(t *testing.T) {
		if ClassifyAuthError(provider, instance, nil) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("input errors are returned unchanged", func(t *testing.T) {
		for _, err := range []error{
			&pkgoauth.SecretValidationError{Reason: "too short"},
			fmt.Errorf("%w: ftp scheme", pkgoauth.ErrInvalidInstance),
			context.Canceled,
			ErrPromptCancelled,
		} {
			if got := ClassifyAuthError(provider, instance, err); got != err {
				t.Errorf("expected %v to be returned unchanged, got %v", err, got)
			}
		}
	})

	t.Run("rate limit", func(t *testing.T) {
		err := ClassifyAuthError(provider, instance, &oauth.RateLimitError{RetryAfter: 30 * time.Second})

		var rateErr *RateLimitedError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitedError, got %T", err)
		}
		if rateErr.RetryAfter != 30*time.Second {
			t.Errorf("expected 30s, got %s", rateErr.RetryAfter)
		}
		if !errors.Is(err, oauth.ErrRateLimited) {
			t.Error("expected the oauth sentinel to stay reachable")
		}
	})

	t.Run("missing credential requires login", func(t *testing.T) {
		for _, sentinel := range []error{oauth.ErrNotFound, oauth.ErrNoRefreshToken} {
			err := ClassifyAuthError(provider, instance, fmt.Errorf("%w for %q", sentinel, provider))
			if !errors.Is(err, &AuthRequiredError{}) {
				t.Errorf("expected AuthRequiredError for %v, got %T", sentinel, err)
			}
		}
	})

	t.Run("invalid_grant means expired", func(t *testing.T) {
		err := ClassifyAuthError(provider, instance, &oauth.TokenEndpointError{StatusCode: 400, ErrorCode: "invalid_grant"})
		if !errors.Is(err, &AuthExpiredError{}) {
			t.Errorf("expected AuthExpiredError, got %T", err)
		}
	})

	t.Run("other token endpoint errors fail", func(t *testing.T) {
		err := ClassifyAuthError(provider, instance, &oauth.TokenEndpointError{StatusCode: 401, ErrorCode: "invalid_client"})
		if !errors.Is(err, &AuthFailedError{}) {
			t.Errorf("expected AuthFailedError, got %T", err)
		}
	})

	t.Run("transport errors carry a connection classification", func(t *testing.T) {
		transport := &url.Error{Op: "Post", URL: instance, Err: errors.New("dial tcp: connect: connection refused")}
		err := ClassifyAuthError(provider, instance, fmt.Errorf("%w: %w", oauth.ErrTokenEndpoint, transport))

		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			t.Fatalf("expected a ConnectionError in the chain, got %v", err)
		}
		if connErr.Type != ConnectionErrorNetwork {
			t.Errorf("expected network error, got %v", connErr.Type)
		}
		if !errors.Is(err, &AuthFailedError{}) {
			t.Error("expected AuthFailedError")
		}
	})

	t.Run("flow failures", func(t *testing.T) {
		for _, sentinel := range []error{oauth.ErrStateMismatch, oauth.ErrCallbackTimeout, oauth.ErrListenerStartup} {
			err := ClassifyAuthError(provider, instance, sentinel)
			if !errors.Is(err, &AuthFailedError{}) || !errors.Is(err, sentinel) {
				t.Errorf("expected AuthFailedError wrapping %v, got %v", sentinel, err)
			}
		}
	})
}
