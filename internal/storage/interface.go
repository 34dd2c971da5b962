package storage

import "context"

// RecordStore is a key/value persistence backend holding whole JSON documents.
// GetRecord returns errors.ErrRecordNotFound for a key that was never written.
type RecordStore interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	GetRecord(ctx context.Context, key string) ([]byte, error)
	PutRecord(ctx context.Context, key string, value []byte) error

	// Describe returns a non-sensitive identifier for the backend.
	Describe() string
}

// Migrator is implemented by the SQL backends.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}
