package cli

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/shiftbell/internal/config"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/notifier"
	"github.com/julianstephens/shiftbell/internal/reconciler"
	"github.com/julianstephens/shiftbell/internal/storage/sqlite"
)

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		input   string
		want    []time.Weekday
		wantErr bool
	}{
		{input: "mon,wed,fri", want: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{input: "Sunday, 6", want: []time.Weekday{time.Sunday, time.Saturday}},
		{input: "weekdays", want: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{input: "funday", wantErr: true},
		{input: "7", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekdays(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekdays(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseWeekdays(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewContextReconcilesAfterEdit(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Port.Kind = config.PortMemory
	port := notifier.NewMemoryPort()

	ctx, err := NewContext(cfg, store, port)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()
	ctx.Now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	if _, ok := ctx.LastOutcome(); ok {
		t.Error("outcome reported before any edit")
	}
	if err := ctx.Calendar.Set(context.Background(), models.DayRecord{Date: "2026-03-02", Type: models.DayTypeWorkDay}); err != nil {
		t.Fatal(err)
	}

	out, ok := ctx.LastOutcome()
	if !ok || out.Coalesced || len(out.Result.Added) != 4 {
		t.Fatalf("LastOutcome() = %+v, %v", out, ok)
	}
	if len(port.Pending()) != 4 {
		t.Errorf("Pending() = %v", port.Pending())
	}
	if out.Result.Trigger != models.TriggerEdit {
		t.Errorf("Trigger = %s", out.Result.Trigger)
	}
}

func TestEditWaitsForRunInAnotherContext(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shiftbell.db")
	cfg := config.Default()
	cfg.Path = filepath.Join(dir, "config.yaml")
	cfg.Timezone = "UTC"
	cfg.Port.Kind = config.PortMemory
	port := notifier.NewMemoryPort()
	now := func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	open := func(init bool) *Context {
		t.Helper()
		store := sqlite.NewStore(dbPath)
		load := store.Load
		if init {
			load = store.Init
		}
		if err := load(); err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		c, err := NewContext(cfg, store, port)
		if err != nil {
			t.Fatal(err)
		}
		c.Now = now
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	daemon := open(true)
	editor := open(false)

	ctx := context.Background()
	if err := daemon.Calendar.Set(ctx, models.DayRecord{Date: "2026-03-02", Type: models.DayTypeWorkDay}); err != nil {
		t.Fatal(err)
	}
	if len(port.Pending()) != 4 {
		t.Fatalf("Pending() = %v", port.Pending())
	}

	// hold the daemon's run after it has read the calendar
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	port.SetHook(func(op, id string) {
		if op == "list" {
			once.Do(func() {
				close(started)
				<-release
			})
		}
	})

	background := make(chan reconciler.Outcome, 1)
	go func() { background <- daemon.Reconciler.Trigger(ctx, models.TriggerBackground) }()
	<-started

	edited := make(chan error, 1)
	go func() {
		edited <- editor.Calendar.Set(ctx, models.DayRecord{Date: "2026-03-02", Type: models.DayTypeAnnualLeave})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		dt, err := daemon.Calendar.Day(ctx, "2026-03-02")
		if err != nil {
			t.Fatal(err)
		}
		if dt == models.DayTypeAnnualLeave {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("edit was never committed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case err := <-edited:
		t.Fatalf("edit reconciled while another run held the lock (err = %v)", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	if out := <-background; out.Coalesced || out.Result.Aborted {
		t.Fatalf("background Trigger() = %+v", out)
	}
	if err := <-edited; err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := port.Pending(); len(got) != 0 {
		t.Errorf("annual-leave date still has notifications after both runs: %v", got)
	}
	out, ok := editor.LastOutcome()
	if !ok || out.Coalesced || len(out.Result.Removed) != 4 {
		t.Errorf("edit outcome = %+v, %v; want all 4 ids removed", out, ok)
	}
}

func TestNewContextBadTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Timezone = "Mars/Olympus"
	if _, err := NewContext(cfg, nil, notifier.NewMemoryPort()); err == nil {
		t.Error("NewContext() error = nil")
	}
}

func TestNewPort(t *testing.T) {
	cfg := config.Default()
	cfg.Port.Kind = config.PortMemory
	cfg.Port.RatePerSec = 0
	if _, ok := NewPort(cfg).(*notifier.MemoryPort); !ok {
		t.Error("memory kind without rate limit should return the bare MemoryPort")
	}
	cfg.Port.Kind = config.PortTray
	cfg.Port.RatePerSec = 5
	if _, ok := NewPort(cfg).(*notifier.RateLimited); !ok {
		t.Error("rate limit not applied")
	}
}

func TestFormatResult(t *testing.T) {
	res := models.ReconciliationResult{Added: []string{"a", "b"}, Removed: []string{"c"}, Unchanged: 3}
	if got := FormatResult(res); got != "Notifications: +2 added, -1 removed, 3 unchanged" {
		t.Errorf("FormatResult() = %q", got)
	}
	res.Errors = []error{context.DeadlineExceeded}
	if got := FormatResult(res); !strings.Contains(got, "1 failed") {
		t.Errorf("FormatResult() = %q", got)
	}
	aborted := models.ReconciliationResult{Aborted: true, Errors: []error{context.Canceled}}
	if got := FormatResult(aborted); !strings.Contains(got, "aborted") {
		t.Errorf("FormatResult() = %q", got)
	}
}
