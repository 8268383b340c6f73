package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates the token endpoint of an instance could not be
// reached.
type ConnectionError struct {
	// Instance is the instance URL that could not be reached.
	Instance string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error returns the category, the instance and the underlying error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s reaching %s: %v", e.Type, e.Instance, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError returns a ConnectionError when err is a transport
// failure, and nil otherwise. Errors carrying an HTTP response from the
// instance are not connection errors.
func ClassifyConnectionError(err error, instance string) *ConnectionError {
	if err == nil {
		return nil
	}

	var connType ConnectionErrorType
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		connType = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		connType = ConnectionErrorDNS
	case isTimeoutError(err):
		connType = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		connType = ConnectionErrorNetwork
	default:
		var urlErr *url.Error
		if !errors.As(err, &urlErr) {
			return nil
		}
		connType = ConnectionErrorUnknown
	}

	return &ConnectionError{
		Instance: instance,
		Type:     connType,
		Reason:   err,
	}
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates there is no usable credential for a provider.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Provider is the credential store key.
	Provider string
	// Reason is the underlying error, if any.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	if e.Provider == "" {
		return `No OAuth credential stored

To authenticate, run:
  nowauth auth login --instance <instance>`
	}
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  nowauth auth login --provider %s --instance <instance>

To list stored credentials:
  nowauth credentials list`, e.Provider, e.Provider)
}

// Unwrap returns the underlying error.
func (e *AuthRequiredError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the stored access token has expired and could
// not be renewed.
type AuthExpiredError struct {
	// Provider is the credential store key.
	Provider string
	// Instance is the instance URL of the expired credential.
	Instance string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Authentication expired for %s (%s)

To re-authenticate, run:
  nowauth auth login --provider %s --instance %s

Or try to refresh your token:
  nowauth auth refresh %s`, e.Provider, e.Instance, e.Provider, e.Instance, e.Provider)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates a login or refresh attempt failed.
type AuthFailedError struct {
	// Provider is the credential store key.
	Provider string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry authentication, run:
  nowauth auth login --provider %s`, e.Provider, e.Reason, e.Provider)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// RateLimitedError indicates the local token request budget is exhausted.
type RateLimitedError struct {
	// RetryAfter is how long until the next request is allowed.
	RetryAfter time.Duration
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *RateLimitedError) Error() string {
	wait := e.RetryAfter.Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return fmt.Sprintf("Too many token requests. Try again in %s.", wait)
}

// Unwrap returns the underlying error.
func (e *RateLimitedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *RateLimitedError) Is(target error) bool {
	_, ok := target.(*RateLimitedError)
	return ok
}
