package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/shiftbell/internal/config"
	"github.com/julianstephens/shiftbell/internal/engine"
	"github.com/julianstephens/shiftbell/internal/lock"
	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/notifier"
	"github.com/julianstephens/shiftbell/internal/reconciler"
	"github.com/julianstephens/shiftbell/internal/status"
	"github.com/julianstephens/shiftbell/internal/storage"
)

type Context struct {
	Config     *config.Config
	Store      storage.RecordStore
	Calendar   *storage.CalendarStore
	Settings   *storage.SettingsStore
	Runs       *storage.ReconciliationStore
	Port       notifier.Port
	Engine     *engine.Engine
	Reconciler *reconciler.Reconciler
	// Now returns the current time in the configured timezone.
	Now func() time.Time

	mu          sync.Mutex
	last        *reconciler.Outcome
	unsubscribe []func()
}

// NewContext wires the stores, engine and reconciler around store and port. Every
// committed calendar or settings edit triggers a reconciliation before the write
// call returns. Runs hold the config directory's run lock, so an edit made while
// another process is reconciling waits for that run and then reconciles.
func NewContext(cfg *config.Config, store storage.RecordStore, port notifier.Port) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	c := &Context{
		Config:   cfg,
		Store:    store,
		Calendar: storage.NewCalendarStore(store),
		Settings: storage.NewSettingsStore(store),
		Runs:     storage.NewReconciliationStore(store),
		Port:     port,
		Engine:   engine.New(cfg.HorizonDays),
		Now:      func() time.Time { return time.Now().In(loc) },
	}
	opts := []reconciler.Option{reconciler.WithClock(func() time.Time { return c.Now() })}
	if cfg.RunTimeout > 0 {
		opts = append(opts, reconciler.WithRerunTimeout(cfg.RunTimeout))
	}
	// the CLI and the daemon are separate processes sharing the store and the port
	if path := cfg.RunLockPath(); path != "" {
		opts = append(opts, reconciler.WithLocker(lock.New(path)))
	}
	c.Reconciler = reconciler.New(c.Calendar, c.Settings, c.Runs, port, c.Engine, opts...)

	onEdit := func(ctx context.Context) {
		out := c.Reconciler.Trigger(ctx, models.TriggerEdit)
		c.mu.Lock()
		c.last = &out
		c.mu.Unlock()
	}
	c.unsubscribe = append(c.unsubscribe, c.Calendar.Subscribe(onEdit), c.Settings.Subscribe(onEdit))
	return c, nil
}

// NewPort builds the notification port selected by cfg.
func NewPort(cfg *config.Config) notifier.Port {
	var p notifier.Port
	switch cfg.Port.Kind {
	case config.PortMemory:
		p = notifier.NewMemoryPort()
	default:
		p = notifier.NewTrayPort(cfg.Port.LockfileDir)
	}
	return notifier.WithRateLimit(p, cfg.Port.RatePerSec, cfg.Port.Burst)
}

// RunContext bounds a command's store and port work by the configured run timeout.
func (c *Context) RunContext() (context.Context, context.CancelFunc) {
	if c.Config == nil || c.Config.RunTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Config.RunTimeout)
}

// LastOutcome returns the outcome of the most recent edit-triggered reconciliation.
func (c *Context) LastOutcome() (reconciler.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return reconciler.Outcome{}, false
	}
	return *c.last, true
}

// ReportEdit prints what the reconciliation after an edit did. Scheduling failures
// are logged by the reconciler; only permission problems reach the user here.
func (c *Context) ReportEdit() {
	out, ok := c.LastOutcome()
	if !ok {
		return
	}
	if out.Coalesced {
		fmt.Println("Notifications will be updated by the reconciliation already in progress.")
		return
	}
	fmt.Println(FormatResult(out.Result))
	if out.Result.PermissionDenied {
		fmt.Println(status.PermissionBanner(notifier.PermissionDenied, models.ReconciliationRecord{}))
	}
}

// FormatResult summarises a run on one line.
func FormatResult(res models.ReconciliationResult) string {
	if res.Aborted && len(res.Added)+len(res.Removed) == 0 {
		return fmt.Sprintf("Notifications unchanged: reconciliation aborted (%v)", res.Err())
	}
	s := fmt.Sprintf("Notifications: +%d added, -%d removed, %d unchanged", len(res.Added), len(res.Removed), res.Unchanged)
	if n := len(res.Errors); n > 0 {
		s += fmt.Sprintf(" (%d failed, will retry)", n)
	}
	return s
}

// Close detaches the edit subscriptions and closes the backend.
func (c *Context) Close() error {
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
	if c.Store == nil {
		return nil
	}
	if err := c.Store.Close(); err != nil {
		logger.Warn("failed to close storage", "backend", c.Store.Describe(), "error", err)
		return err
	}
	return nil
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	parts := strings.Split(s, ",")
	var weekdays []time.Weekday

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "weekdays" {
			weekdays = append(weekdays, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
			continue
		}
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
		} else {
			// Try parsing as number (0=Sunday, 6=Saturday)
			num, err := strconv.Atoi(part)
			if err == nil && num >= 0 && num <= 6 {
				weekdays = append(weekdays, time.Weekday(num))
			} else {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
		}
	}

	return weekdays, nil
}
