package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/lock"
)

// Locker guards the file's read-modify-write against other processes.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

// Store keeps every record in a single JSON object on disk.
type Store struct {
	fs     afero.Fs
	path   string
	mu     sync.Mutex
	locker Locker
}

type Option func(*Store)

// WithLocker sets the lock held around every write.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

// NewStore opens path on the OS filesystem. Writes hold path.lock so several
// processes can share the file.
func NewStore(path string) *Store {
	return NewStoreFs(afero.NewOsFs(), path, WithLocker(lock.New(path+".lock")))
}

func NewStoreFs(fs afero.Fs, path string, opts ...Option) *Store {
	s := &Store{fs: fs, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PathFromURL strips the file:// scheme.
func PathFromURL(connStr string) string {
	return strings.TrimPrefix(connStr, "file://")
}

func (s *Store) Init() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return err
	}
	if exists {
		_, err := s.readAll()
		return err
	}
	return s.withLock(context.Background(), func() error {
		if exists, err := afero.Exists(s.fs, s.path); err != nil || exists {
			return err
		}
		return s.writeAll(map[string]json.RawMessage{})
	})
}

func (s *Store) Load() error {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("storage not initialized, run 'shiftbell init' first")
	}
	_, err = s.readAll()
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) GetRecord(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	raw, ok := records[key]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	return raw, nil
}

func (s *Store) PutRecord(ctx context.Context, key string, value []byte) error {
	// values are kept compact so GetRecord returns what a later rewrite of the file keeps
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return errors.New("record value is not valid JSON")
	}
	return s.withLock(ctx, func() error {
		records, err := s.readAll()
		if err != nil {
			return err
		}
		records[key] = json.RawMessage(buf.Bytes())
		return s.writeAll(records)
	})
}

// withLock runs fn holding both the in-process mutex and the cross-process lock,
// so the file read inside fn is the one fn's write replaces.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locker == nil {
		return fn()
	}
	if err := s.locker.Lock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.locker.Unlock() }()
	return fn()
}

func (s *Store) Describe() string {
	return s.path
}

func (s *Store) readAll() (map[string]json.RawMessage, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	records := map[string]json.RawMessage{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return records, nil
}

// writeAll replaces the file through a rename so readers never see a torn write.
// Each write uses its own temp file.
func (s *Store) writeAll(records map[string]json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := s.fs.Chmod(tmpName, os.FileMode(0600)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
