package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/shiftbell/internal/logger"
)

var (
	// ErrPermissionDenied means the user has not granted notification permission.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrSchedulingFailed is a transient failure scheduling a single notification.
	ErrSchedulingFailed = errors.New("scheduling failed")
	// ErrNotFound is returned by a notification port when cancelling an unknown id.
	ErrNotFound = errors.New("notification not found")
	// ErrRecordNotFound is returned by record backends for a key that was never written.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreRead means the persistence layer could not be read.
	ErrStoreRead = errors.New("store read failed")
	// ErrStoreWrite means an edit was not durably saved.
	ErrStoreWrite = errors.New("store write failed")
)

// StoreOp names the direction of a failed store access.
type StoreOp string

const (
	OpRead  StoreOp = "read"
	OpWrite StoreOp = "write"
)

// StoreError wraps a backend failure with the operation and record key involved.
type StoreError struct {
	Op  StoreOp
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches ErrStoreRead or ErrStoreWrite according to Op.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrStoreRead:
		return e.Op == OpRead
	case ErrStoreWrite:
		return e.Op == OpWrite
	}
	return false
}

// ReadError wraps err as a StoreReadFailure for key.
func ReadError(key string, err error) error {
	return &StoreError{Op: OpRead, Key: key, Err: err}
}

// WriteError wraps err as a StoreWriteFailure for key.
func WriteError(key string, err error) error {
	return &StoreError{Op: OpWrite, Key: key, Err: err}
}

// NotificationError ties a port failure to the notification id it concerns.
type NotificationError struct {
	ID  string
	Op  string
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
