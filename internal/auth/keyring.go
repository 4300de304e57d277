package auth

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	keyringService = "staticcms"
	// Key for the GitHub OAuth access token
	accessTokenKey = "github_oauth_token"
)

// KeyringStore persists the OAuth access token in the OS credential store
// (macOS Keychain, Windows Credential Manager, Linux Secret Service) so the
// user stays signed in across restarts. Only the token is persisted; the
// identity attached to it is re-fetched from the provider on startup.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed token store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

// SaveToken stores the OAuth access token in the OS credential store.
func (ks *KeyringStore) SaveToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(ks.service, accessTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// LoadToken retrieves the stored OAuth access token. Returns an error if no
// token is stored or the credential store is unavailable.
func (ks *KeyringStore) LoadToken() (string, error) {
	token, err := keyring.Get(ks.service, accessTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no stored session - sign in with GitHub first")
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty - sign in with GitHub again")
	}
	return token, nil
}

// DeleteToken removes the stored token. Missing tokens are not an error.
func (ks *KeyringStore) DeleteToken() error {
	err := keyring.Delete(ks.service, accessTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasToken reports whether a token is stored without retrieving it.
func (ks *KeyringStore) HasToken() bool {
	_, err := keyring.Get(ks.service, accessTokenKey)
	return err == nil
}
