package background

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterIsIdempotentByName(t *testing.T) {
	s := New(time.UTC)
	job := func(context.Context) {}

	if err := s.Register("shiftbell:reconcile", 15*time.Minute, job); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register("shiftbell:reconcile", 5*time.Minute, job); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() = %d, want 1", len(entries))
	}
	if entries[0].Every != 5*time.Minute {
		t.Errorf("Every = %s, want the latest registration", entries[0].Every)
	}
	if got := len(s.c.Entries()); got != 1 {
		t.Errorf("cron holds %d entries, want 1", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := New(nil)
	tests := []struct {
		name  string
		entry string
		every time.Duration
		job   Job
	}{
		{name: "empty name", entry: " ", every: time.Minute, job: func(context.Context) {}},
		{name: "sub-second", entry: "x", every: 10 * time.Millisecond, job: func(context.Context) {}},
		{name: "nil job", entry: "x", every: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Register(tt.entry, tt.every, tt.job); err == nil {
				t.Error("Register() error = nil")
			}
		})
	}
}

func TestUnregister(t *testing.T) {
	s := New(time.UTC)
	_ = s.Register("a", time.Minute, func(context.Context) {})
	if !s.Unregister("a") {
		t.Error("Unregister(a) = false")
	}
	if s.Unregister("a") {
		t.Error("second Unregister(a) = true")
	}
	if len(s.Entries()) != 0 {
		t.Error("entries left after Unregister")
	}
}

type ctxKey struct{}

func TestStartRunsJobsWithContext(t *testing.T) {
	s := New(time.UTC)
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	ctx := context.WithValue(context.Background(), ctxKey{}, "daemon")

	err := s.Register("tick", time.Second, func(ctx context.Context) {
		if ctx.Value(ctxKey{}) != "daemon" {
			t.Errorf("job got a foreign context")
		}
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Start(ctx)
	s.Start(ctx)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(stopCtx)

	if e := s.Entries()[0]; e.Prev.IsZero() {
		t.Error("Prev not recorded after a run")
	}
}
