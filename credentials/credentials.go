// Package credentials provides secure database credential storage for the
// revload CLI. Passwords are stored in the system keyring:
//   - macOS: Keychain
//   - Windows: Credential Manager
//   - Linux: Secret Service (libsecret)
//
// For CI and scripted environments, set REVLOAD_DB_PASSWORD to bypass the
// keyring entirely.
package credentials

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name used in the system keyring.
const keyringService = "revload"

// PasswordEnvVar overrides the keyring when set.
const PasswordEnvVar = "REVLOAD_DB_PASSWORD"

// ErrNoPassword is returned when no password is stored for the user.
var ErrNoPassword = errors.New("no database password stored")

// Store manages database passwords in the system keyring.
type Store struct {
	service string
}

// NewStore creates a credential store.
func NewStore() *Store {
	return &Store{service: keyringService}
}

// SetPassword stores the password for a database user.
func (s *Store) SetPassword(user, password string) error {
	if user == "" {
		return fmt.Errorf("user is required")
	}
	if err := keyring.Set(s.service, user, password); err != nil {
		return fmt.Errorf("storing password in keyring: %w", err)
	}
	return nil
}

// GetPassword returns the password for a database user. The
// REVLOAD_DB_PASSWORD environment variable takes precedence over the
// keyring. Returns ErrNoPassword when neither is set.
func (s *Store) GetPassword(user string) (string, error) {
	if v := os.Getenv(PasswordEnvVar); v != "" {
		return v, nil
	}

	password, err := keyring.Get(s.service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoPassword
	}
	if err != nil {
		return "", fmt.Errorf("reading password from keyring: %w", err)
	}
	return password, nil
}

// ClearPassword removes the stored password for a database user. Clearing
// a password that was never stored is not an error.
func (s *Store) ClearPassword(user string) error {
	err := keyring.Delete(s.service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("removing password from keyring: %w", err)
	}
	return nil
}
