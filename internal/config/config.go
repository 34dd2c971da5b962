package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/utils"
)

// PortKind selects the notification port implementation.
type PortKind string

const (
	PortTray   PortKind = "tray"
	PortMemory PortKind = "memory"
)

// File is the on-disk YAML shape. Durations are strings so "15m" reads naturally.
type File struct {
	Storage            string   `yaml:"storage"`
	Timezone           string   `yaml:"timezone"`
	HorizonDays        int      `yaml:"horizon_days"`
	BackgroundInterval string   `yaml:"background_interval"`
	RunTimeout         string   `yaml:"run_timeout"`
	Port               PortFile `yaml:"port"`
	Log                LogFile  `yaml:"log"`
}

type PortFile struct {
	Kind        string `yaml:"kind"`
	LockfileDir string `yaml:"lockfile_dir"`
	RatePerSec  *int   `yaml:"rate_per_sec"`
	Burst       int    `yaml:"burst"`
}

type LogFile struct {
	Debug bool `yaml:"debug"`
}

// Config is the resolved runtime configuration.
type Config struct {
	Path               string
	Storage            string
	Timezone           string
	HorizonDays        int
	BackgroundInterval time.Duration
	RunTimeout         time.Duration
	Port               PortConfig
	Debug              bool
}

type PortConfig struct {
	Kind        PortKind
	LockfileDir string
	RatePerSec  int // 0 disables limiting
	Burst       int
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage:            constants.DefaultStoragePath,
		Timezone:           constants.DefaultTimezone,
		HorizonDays:        constants.DefaultHorizonDays,
		BackgroundInterval: constants.DefaultBackgroundInterval,
		RunTimeout:         constants.DefaultRunTimeout,
		Port: PortConfig{
			Kind:       PortTray,
			RatePerSec: constants.DefaultPortRatePerSec,
			Burst:      constants.DefaultPortBurst,
		},
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// RunLockPath is the lockfile that serializes reconciliations of every process
// reading this config. Empty when the config has no file location.
func (c *Config) RunLockPath() string {
	if c.Path == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.Path), constants.RunLockFileName)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.HorizonDays < 1 || c.HorizonDays > constants.MaxHorizonDays {
		return fmt.Errorf("horizon_days must be between 1 and %d, got %d", constants.MaxHorizonDays, c.HorizonDays)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.BackgroundInterval < time.Minute {
		return fmt.Errorf("background_interval must be at least 1m, got %s", c.BackgroundInterval)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive, got %s", c.RunTimeout)
	}
	switch c.Port.Kind {
	case PortTray, PortMemory:
	default:
		return fmt.Errorf("unknown port kind %q (expected tray or memory)", c.Port.Kind)
	}
	if c.Port.RatePerSec < 0 {
		return fmt.Errorf("port.rate_per_sec must be >= 0")
	}
	if strings.TrimSpace(c.Storage) == "" {
		return errors.New("storage must not be empty")
	}
	return nil
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.Path = expanded
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expanded, err)
	}
	cfg.Path = expanded
	return cfg, nil
}

// Parse decodes YAML strictly, rejecting unknown fields, and applies defaults.
func Parse(data []byte) (*Config, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return f.resolve()
}

func (f File) resolve() (*Config, error) {
	cfg := Default()

	if s := strings.TrimSpace(f.Storage); s != "" {
		cfg.Storage = s
	}
	if tz := strings.TrimSpace(f.Timezone); tz != "" {
		cfg.Timezone = tz
	}
	if f.HorizonDays != 0 {
		cfg.HorizonDays = f.HorizonDays
	}

	var err error
	if cfg.BackgroundInterval, err = ParseDurationOrDefault("background_interval", f.BackgroundInterval, constants.DefaultBackgroundInterval); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = ParseDurationOrDefault("run_timeout", f.RunTimeout, constants.DefaultRunTimeout); err != nil {
		return nil, err
	}

	if k := strings.ToLower(strings.TrimSpace(f.Port.Kind)); k != "" {
		cfg.Port.Kind = PortKind(k)
	}
	cfg.Port.LockfileDir = strings.TrimSpace(f.Port.LockfileDir)
	if f.Port.RatePerSec != nil {
		cfg.Port.RatePerSec = *f.Port.RatePerSec
	}
	if f.Port.Burst > 0 {
		cfg.Port.Burst = f.Port.Burst
	}
	cfg.Debug = f.Log.Debug

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
