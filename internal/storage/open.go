package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/keyring"
	"github.com/julianstephens/shiftbell/internal/storage/file"
	"github.com/julianstephens/shiftbell/internal/storage/postgres"
	"github.com/julianstephens/shiftbell/internal/storage/redis"
	"github.com/julianstephens/shiftbell/internal/storage/sqlite"
	"github.com/julianstephens/shiftbell/internal/utils"
)

// KeyringStorage is the storage value that reads the connection string from the OS keyring.
const KeyringStorage = "keyring"

// Source says where a connection string came from. Only config values are
// untrusted: they must not embed credentials.
type Source string

const (
	SourceConfig  Source = "config"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Resolve picks the effective connection string. SHIFTBELL_DB_CONNECTION wins,
// then "keyring", then the configured value.
func Resolve(configured string) (string, Source, error) {
	if env := strings.TrimSpace(os.Getenv(constants.EnvStorageConnection)); env != "" {
		return env, SourceEnv, nil
	}
	if strings.EqualFold(strings.TrimSpace(configured), KeyringStorage) {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return "", SourceKeyring, errors.New("storage is set to keyring but none is stored. Use 'shiftbell keyring set' to store one")
			}
			return "", SourceKeyring, err
		}
		return connStr, SourceKeyring, nil
	}
	return configured, SourceConfig, nil
}

// IsPostgres reports whether connStr selects the PostgreSQL backend.
func IsPostgres(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") ||
		strings.HasPrefix(connStr, "postgresql://") ||
		strings.Contains(connStr, "host=")
}

// Open builds the backend for connStr without connecting.
func Open(connStr string, source Source) (RecordStore, error) {
	switch {
	case IsPostgres(connStr):
		if source == SourceConfig {
			if _, err := postgres.ValidateConnString(connStr); err != nil {
				if errors.Is(err, postgres.ErrEmbeddedCredentials) {
					return nil, embeddedCredentialsError("PostgreSQL")
				}
				return nil, err
			}
		}
		return postgres.New(connStr), nil

	case redis.IsURL(connStr):
		password := ""
		if source != SourceConfig {
			stripped, pw, err := splitPassword(connStr)
			if err != nil {
				return nil, err
			}
			connStr, password = stripped, pw
		}
		s, err := redis.New(connStr, password)
		if errors.Is(err, redis.ErrEmbeddedCredentials) {
			return nil, embeddedCredentialsError("Redis")
		}
		return s, err

	case strings.HasPrefix(connStr, "file://"):
		path, err := utils.ExpandHome(file.PathFromURL(connStr))
		if err != nil {
			return nil, err
		}
		return file.NewStore(path), nil

	default:
		path, err := utils.ExpandHome(connStr)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

func splitPassword(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.User == nil {
		return rawURL, "", nil
	}
	pw, ok := u.User.Password()
	if !ok {
		return rawURL, "", nil
	}
	if name := u.User.Username(); name != "" {
		u.User = url.User(name)
	} else {
		u.User = nil
	}
	return u.String(), pw, nil
}

func embeddedCredentialsError(backend string) error {
	return fmt.Errorf("%s connection strings with embedded credentials are not allowed in the config file; "+
		"use 'shiftbell keyring set' with storage: keyring, or export %s", backend, constants.EnvStorageConnection)
}
