package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name client secrets are stored under in the
// OS keychain (macOS Keychain, Windows Credential Manager, Secret Service).
const KeyringService = "nowauth"

// SecretKeyring keeps OAuth client secrets in the OS keychain, keyed by
// normalized instance URL and client id, so they need not be typed on every
// login.
type SecretKeyring struct {
	service string
}

// NewSecretKeyring returns a keyring using KeyringService.
func NewSecretKeyring() *SecretKeyring {
	return &SecretKeyring{service: KeyringService}
}

func (k *SecretKeyring) account(instance, clientID string) string {
	return instance + "#" + clientID
}

// Lookup returns the stored secret, or "" when none is stored.
func (k *SecretKeyring) Lookup(instance, clientID string) (string, error) {
	secret, err := keyring.Get(k.service, k.account(instance, clientID))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read client secret from keyring: %w", err)
	}
	return secret, nil
}

// Remember stores secret for the instance and client id.
func (k *SecretKeyring) Remember(instance, clientID, secret string) error {
	if err := keyring.Set(k.service, k.account(instance, clientID), secret); err != nil {
		return fmt.Errorf("failed to save client secret to keyring: %w", err)
	}
	return nil
}

// Forget deletes the stored secret. Forgetting an unknown secret is a no-op.
func (k *SecretKeyring) Forget(instance, clientID string) error {
	err := keyring.Delete(k.service, k.account(instance, clientID))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete client secret from keyring: %w", err)
	}
	return nil
}
