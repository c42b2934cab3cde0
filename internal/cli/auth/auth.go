package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "coursehub-cli"
)

// ErrNotFound is returned when no token is stored for a server
var ErrNotFound = errors.New("no token stored")

// TokenStore defines the interface for durable token storage.
// Tokens are keyed by server alias so that several backends can be used side by side.
type TokenStore interface {
	SaveToken(server, token string) error
	LoadToken(server string) (string, error)
	DeleteToken(server string) error
}

// getKeyringKey returns the fixed key a server's token is stored under
func getKeyringKey(server string) string {
	return fmt.Sprintf("token-%s", server)
}

// Keyring stores tokens in the OS keychain/credential manager
type Keyring struct{}

// Default is the production token store
var Default TokenStore = Keyring{}

// SaveToken persists the token in the OS keychain
func (Keyring) SaveToken(server, token string) error {
	if err := keyring.Set(service, getKeyringKey(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain
func (Keyring) LoadToken(server string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain
func (Keyring) DeleteToken(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
