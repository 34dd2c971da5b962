package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/migration"
	"github.com/julianstephens/shiftbell/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewWithDB wraps an already open handle. Init and Load become no-ops apart from migrations.
func NewWithDB(db *sql.DB) *Store {
	return &Store{path: ":memory:", db: db}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.open(); err != nil {
		return err
	}
	if _, err := s.Migrate(nil); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'shiftbell init' first")
	}
	if err := s.open(); err != nil {
		return err
	}
	r, err := s.runner()
	if err != nil {
		return err
	}
	return r.Validate()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the CLI and the daemon's own goroutines
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure database: %w", err)
	}
	s.db = db
	return nil
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
	err := s.db.QueryRowContext(ctx, "SELECT value FROM records WHERE key = ?", key).Scan(&value)
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
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
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
	sub, err := migrations.Sub(migrations.SQLiteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.SQLite), nil
}

func (s *Store) Describe() string {
	return s.path
}

// GetDB returns the underlying handle, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
