package utils

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "valid timezone Europe/London", timezone: "Europe/London", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestAtTimeOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	day := time.Date(2026, time.March, 10, 15, 42, 7, 0, loc)

	got, err := AtTimeOfDay(day, "08:00")
	if err != nil {
		t.Fatalf("AtTimeOfDay failed: %v", err)
	}
	want := time.Date(2026, time.March, 10, 8, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("AtTimeOfDay() = %v, want %v", got, want)
	}

	if _, err := AtTimeOfDay(day, "8am"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, time.March, 10, 23, 59, 59, 999, time.UTC)
	got := StartOfDay(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Day() != 10 {
		t.Errorf("StartOfDay() = %v", got)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{arg: "", want: "2026-03-10"},
		{arg: "today", want: "2026-03-10"},
		{arg: "Tomorrow", want: "2026-03-11"},
		{arg: "yesterday", want: "2026-03-09"},
		{arg: "2026-04-01", want: "2026-04-01"},
		{arg: "2026-02-30", wantErr: true},
		{arg: "03/10/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ResolveDate(tt.arg, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveDate(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveDate(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestValidateTimeFormat(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59"} {
		if !ValidateTimeFormat(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"24:00", "9", "", "12:60"} {
		if ValidateTimeFormat(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestExpandHome(t *testing.T) {
	got, err := ExpandHome("~/.config/shiftbell")
	if err != nil {
		t.Fatalf("ExpandHome failed: %v", err)
	}
	if strings.HasPrefix(got, "~") || !strings.HasSuffix(got, filepath.Join(".config", "shiftbell")) {
		t.Errorf("ExpandHome() = %q", got)
	}

	abs := filepath.Join(t.TempDir(), "x.db")
	if got, _ := ExpandHome(abs); got != abs {
		t.Errorf("absolute path changed: %q", got)
	}
}
