// Package keyring keeps the remote storage connection string out of the config file.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/shiftbell/internal/constants"
)

var (
	// ErrNotFound is returned when no connection string is stored
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

type entry struct {
	service, user string
}

var storage = entry{service: constants.AppName, user: constants.DefaultKeyringUser}

func (e entry) get() (string, error) {
	v, err := keyring.Get(e.service, e.user)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
}

// GetConnectionString retrieves the storage connection string from the OS keyring.
func GetConnectionString() (string, error) {
	return storage.get()
}

// SetConnectionString stores a postgres or redis connection string. Callers validate
// it against the backend first.
func SetConnectionString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(storage.service, storage.user, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func DeleteConnectionString() error {
	err := keyring.Delete(storage.service, storage.user)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
}

// IsAvailable is a best-effort probe; a not-found read still means the keyring works.
func IsAvailable() bool {
	_, err := entry{service: constants.AppName, user: "probe"}.get()
	return err == nil || errors.Is(err, ErrNotFound)
}
