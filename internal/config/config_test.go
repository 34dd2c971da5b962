package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HorizonDays != 14 {
		t.Errorf("HorizonDays = %d, want 14", cfg.HorizonDays)
	}
	if cfg.Port.Kind != PortTray {
		t.Errorf("Port.Kind = %q, want tray", cfg.Port.Kind)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty document",
			yaml: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.BackgroundInterval != 15*time.Minute {
					t.Errorf("BackgroundInterval = %s", cfg.BackgroundInterval)
				}
			},
		},
		{
			name: "full document",
			yaml: `
storage: /tmp/shiftbell.db
timezone: UTC
horizon_days: 21
background_interval: 5m
run_timeout: 10s
port:
  kind: memory
  rate_per_sec: 0
  burst: 3
log:
  debug: true
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Storage != "/tmp/shiftbell.db" || cfg.Timezone != "UTC" || cfg.HorizonDays != 21 {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.BackgroundInterval != 5*time.Minute || cfg.RunTimeout != 10*time.Second {
					t.Errorf("unexpected durations: %s %s", cfg.BackgroundInterval, cfg.RunTimeout)
				}
				if cfg.Port.Kind != PortMemory || cfg.Port.RatePerSec != 0 || cfg.Port.Burst != 3 {
					t.Errorf("unexpected port: %+v", cfg.Port)
				}
				if !cfg.Debug {
					t.Error("Debug = false, want true")
				}
			},
		},
		{name: "horizon too large", yaml: "horizon_days: 100", wantErr: "horizon_days"},
		{name: "negative horizon", yaml: "horizon_days: -1", wantErr: "horizon_days"},
		{name: "bad duration", yaml: "background_interval: soon", wantErr: "background_interval"},
		{name: "interval too short", yaml: "background_interval: 10s", wantErr: "at least 1m"},
		{name: "unknown port", yaml: "port:\n  kind: carrier-pigeon", wantErr: "unknown port kind"},
		{name: "bad timezone", yaml: "timezone: Mars/Olympus", wantErr: "invalid timezone"},
		{name: "unknown field", yaml: "horizon: 3", wantErr: "field horizon not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("x", "", time.Second)
	if err != nil || d != time.Second {
		t.Errorf("empty: got %s, %v", d, err)
	}
	d, err = ParseDurationOrDefault("x", "2m", time.Second)
	if err != nil || d != 2*time.Minute {
		t.Errorf("2m: got %s, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("horizon_days: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	initial, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []*Config
	w := NewWatcher(path, initial, func(c *Config) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("horizon_days: 9\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatal("watcher never reported a reload")
	}
	if got[len(got)-1].HorizonDays != 9 {
		t.Errorf("HorizonDays = %d, want 9", got[len(got)-1].HorizonDays)
	}
}

func TestWatcherIgnoresInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("horizon_days: 500\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	called := false
	w := NewWatcher(path, Default(), func(*Config) { called = true })
	w.reload()
	if called {
		t.Error("onChange called for invalid config")
	}
}
