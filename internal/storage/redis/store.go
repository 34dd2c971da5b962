package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/shiftbell/internal/constants"
	apperrors "github.com/julianstephens/shiftbell/internal/errors"
)

// recordsHash holds every document as one field, so each put is a single atomic HSET.
const recordsHash = constants.AppName + ":records"

var ErrEmbeddedCredentials = errors.New("redis URL must not contain a password")

type Store struct {
	opts   *goredis.Options
	client *goredis.Client
}

// New parses a redis:// or rediss:// URL. The password, if any, comes from
// password separately so it never lives in config files.
func New(rawURL, password string) (*Store, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.Password != "" {
		return nil, ErrEmbeddedCredentials
	}
	opts.Password = password
	return &Store{opts: opts}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{opts: client.Options(), client: client}
}

func (s *Store) Init() error {
	return s.Load()
}

func (s *Store) Load() error {
	if s.client == nil {
		s.client = goredis.NewClient(s.opts)
	}
	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", s.opts.Addr, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, errors.New("redis not loaded")
	}
	val, err := s.client.HGet(ctx, recordsHash, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, apperrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return val, nil
}

func (s *Store) PutRecord(ctx context.Context, key string, value []byte) error {
	if s.client == nil {
		return errors.New("redis not loaded")
	}
	if err := s.client.HSet(ctx, recordsHash, key, value).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *Store) Describe() string {
	return fmt.Sprintf("redis://%s/%d", s.opts.Addr, s.opts.DB)
}

// IsURL reports whether connStr selects this backend.
func IsURL(connStr string) bool {
	return strings.HasPrefix(connStr, "redis://") || strings.HasPrefix(connStr, "rediss://")
}
