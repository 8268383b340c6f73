package oauth

import (
	"errors"
	"strings"
)

// MinClientSecretLength is the shortest client secret accepted for a flow.
const MinClientSecretLength = 32

// ErrWeakSecret is the sentinel wrapped by every SecretValidationError.
var ErrWeakSecret = errors.New("client secret rejected")

// weakSecretPatterns are matched case-insensitively as substrings.
var weakSecretPatterns = []string{
	"password",
	"123456",
	"qwerty",
	"admin",
	"secret",
	"changeme",
	"letmein",
	"welcome",
}

// SecretValidationError explains why a client secret was rejected.
type SecretValidationError struct {
	Reason string
}

func (e *SecretValidationError) Error() string {
	return ErrWeakSecret.Error() + ": " + e.Reason
}

// Unwrap returns ErrWeakSecret so callers can match with errors.Is.
func (e *SecretValidationError) Unwrap() error {
	return ErrWeakSecret
}

// ValidateClientSecret rejects empty, short and obviously weak secrets.
func ValidateClientSecret(secret string) error {
	if secret == "" {
		return &SecretValidationError{Reason: "client secret is empty"}
	}

	if len(secret) < MinClientSecretLength {
		return &SecretValidationError{Reason: "client secret must be at least 32 characters"}
	}

	lower := strings.ToLower(secret)
	for _, pattern := range weakSecretPatterns {
		if strings.Contains(lower, pattern) {
			return &SecretValidationError{Reason: "client secret contains the common pattern \"" + pattern + "\""}
		}
	}

	return nil
}
