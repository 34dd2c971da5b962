package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "simple error", err: errors.New("something went wrong"), expected: "Error: something went wrong"},
		{
			name:     "store error",
			err:      WriteError("shiftbell.calendar", errors.New("disk full")),
			expected: "Error: store write shiftbell.calendar: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	result := Formatf("failed to load %s", "calendar")
	if result != "Error: failed to load calendar" {
		t.Errorf("Formatf() = %q", result)
	}
}

func TestStoreError_Is(t *testing.T) {
	cause := errors.New("database is locked")

	read := ReadError("shiftbell.settings", cause)
	if !errors.Is(read, ErrStoreRead) {
		t.Error("read error should match ErrStoreRead")
	}
	if errors.Is(read, ErrStoreWrite) {
		t.Error("read error should not match ErrStoreWrite")
	}
	if !errors.Is(read, cause) {
		t.Error("read error should unwrap to its cause")
	}

	write := fmt.Errorf("saving day: %w", WriteError("shiftbell.calendar", cause))
	if !errors.Is(write, ErrStoreWrite) {
		t.Error("wrapped write error should match ErrStoreWrite")
	}

	var se *StoreError
	if !errors.As(write, &se) || se.Key != "shiftbell.calendar" {
		t.Errorf("errors.As did not recover the StoreError: %v", se)
	}
}

func TestNotificationError(t *testing.T) {
	err := &NotificationError{ID: "shiftbell:work_start:2026-03-10", Op: "schedule", Err: ErrSchedulingFailed}
	if !errors.Is(err, ErrSchedulingFailed) {
		t.Error("NotificationError should unwrap to ErrSchedulingFailed")
	}
	if !strings.Contains(err.Error(), "shiftbell:work_start:2026-03-10") {
		t.Errorf("error text should include the id: %s", err.Error())
	}
}

// TestFatal tests the Fatal function using exec helper process
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(errors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != 1 {
			t.Errorf("Fatal() exit code = %d, want 1", e.ExitCode())
		}
		if !strings.Contains(stderr.String(), "Error: test error") {
			t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
		}
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

// TestFatal_NilError tests that Fatal does nothing when passed a nil error
func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_NilError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}
