package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/shiftbell/internal/constants"
	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/migration"
	"github.com/julianstephens/shiftbell/migrations"
)

type Store struct {
	connStr string
	db      *sql.DB
}

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

func New(connStr string) *Store {
	return &Store{connStr: withSearchPath(connStr)}
}

// withSearchPath pins search_path to the app schema unless the caller set one.
func withSearchPath(connStr string) string {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if dsnHasKey(connStr, "search_path") {
		return connStr
	}
	return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// dsnHasKey reports whether a key=value DSN (or URL query) carries key, case-insensitively.
func dsnHasKey(connStr, key string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for k := range u.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	}
	for _, part := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(part, "=")
		if ok && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ValidateConnString checks connStr parses as a PostgreSQL URI or DSN and
// carries no password. Secrets belong in ~/.pgpass or the keyring.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return true, nil
	}

	for _, pair := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(pair, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "password") {
			return false, ErrEmbeddedCredentials
		}
	}
	return true, nil
}

func (s *Store) Init() error {
	db, err := s.connect()
	if err != nil {
		return err
	}
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	if _, err := s.Migrate(nil); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	db, err := s.connect()
	if err != nil {
		return err
	}
	s.db = db

	r, err := s.runner()
	if err != nil {
		return err
	}
	return r.Validate()
}

func (s *Store) connect() (*sql.DB, error) {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !dsnHasKey(s.connStr, "sslmode") {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, errors.New("database not loaded")
	}
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM records WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return []byte(value), nil
}

func (s *Store) PutRecord(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return errors.New("database not loaded")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *Store) Migrate(logFn func(string)) (int, error) {
	r, err := s.runner()
	if err != nil {
		return 0, err
	}
	return r.Apply(logFn)
}

func (s *Store) SchemaVersion() (int, int, error) {
	r, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	current, err := r.CurrentVersion()
	if err != nil {
		return 0, 0, err
	}
	latest, err := r.LatestVersion()
	return current, latest, err
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := migrations.Sub(migrations.PostgresDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.Postgres), nil
}

// Describe never exposes the connection string.
func (s *Store) Describe() string {
	return "postgresql"
}

// NewWithDB wraps an open handle, used with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}
