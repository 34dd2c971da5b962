package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/shiftbell/internal/logger"
)

const watchDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes and hands valid configs to onChange.
// Invalid edits are logged and ignored so a typo never tears down a running daemon.
type Watcher struct {
	path     string
	onChange func(*Config)

	mu      sync.Mutex
	timer   *time.Timer
	current *Config
}

func NewWatcher(path string, current *Config, onChange func(*Config)) *Watcher {
	return &Watcher{path: path, current: current, onChange: onChange}
}

// Watch blocks until ctx is done. The parent directory is watched because editors
// often replace the file instead of writing it in place.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}
	logger.Debug("config watcher started", "dir", dir, "file", file)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debounce()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch error", "error", err, "dir", dir)
		}
	}
}

func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Warn("config reload rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := w.current != nil && *w.current == *cfg
	if !unchanged {
		w.current = cfg
	}
	w.mu.Unlock()

	if unchanged {
		logger.Debug("config unchanged; skipping reload", "path", w.path)
		return
	}
	logger.Info("config reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
