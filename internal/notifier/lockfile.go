package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/shiftbell/internal/constants"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning is returned when the tray companion cannot be located.
var ErrTrayNotRunning = errors.New("shiftbell-tray is not running")

// TrayConfigDir returns the directory holding the tray's lockfile. override wins,
// then lockfile_dir from the tray's own settings.json, then the default.
func TrayConfigDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayDir, "settings.json"))
	if err != nil {
		return trayDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil && store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
		return *store.Settings.LockfileDir, nil
	}
	return trayDir, nil
}

// trayEndpoint is what the lockfile "port|pid|secret" resolves to.
type trayEndpoint struct {
	port   int
	pid    int
	secret string
}

func (e trayEndpoint) baseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", e.port)
}

// readLockfile parses the lockfile and checks the recorded PID is a live tray process.
func readLockfile(path string) (trayEndpoint, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return trayEndpoint{}, ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return trayEndpoint{}, errors.New("lockfile is malformed")
	}

	if strings.TrimSpace(parts[0]) == "" {
		return trayEndpoint{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return trayEndpoint{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return trayEndpoint{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return trayEndpoint{}, errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return trayEndpoint{}, errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return trayEndpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return trayEndpoint{}, fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutablePrefix, process.Executable())
	}

	return trayEndpoint{port: port, pid: pid, secret: secret}, nil
}
