// Package background hosts the periodic wake-up that keeps notifications
// reconciled while nothing else is happening.
package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/shiftbell/internal/logger"
)

// Job is invoked on every tick with the context passed to Start.
type Job func(ctx context.Context)

// Entry describes one registered wake-up.
type Entry struct {
	Name  string
	Every time.Duration
	Next  time.Time
	Prev  time.Time
}

type registration struct {
	id    cron.EntryID
	every time.Duration
}

// Service wraps a cron runner whose entries are keyed by name.
type Service struct {
	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]registration
	ctx     context.Context
	started bool
}

func New(loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{}
	return &Service{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		entries: map[string]registration{},
	}
}

// Register schedules job every interval under name. Registering a name again
// replaces the previous entry, so repeated registration never duplicates a wake-up.
func (s *Service) Register(name string, every time.Duration, job Job) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name required")
	}
	if every < time.Second {
		return fmt.Errorf("interval for %s must be at least 1s, got %s", name, every)
	}
	if job == nil {
		return fmt.Errorf("job for %s is nil", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[name]; ok {
		s.c.Remove(prev.id)
	}
	id := s.c.Schedule(cron.Every(every), cron.FuncJob(func() {
		job(s.jobContext())
	}))
	s.entries[name] = registration{id: id, every: every}
	logger.Debug("wake-up registered", "name", name, "every", every)
	return nil
}

// Unregister removes name and reports whether it was registered.
func (s *Service) Unregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.entries[name]
	if !ok {
		return false
	}
	s.c.Remove(reg.id)
	delete(s.entries, name)
	return true
}

// Start begins firing entries. ctx is handed to every job run.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx = ctx
	s.started = true
	s.c.Start()
	logger.Info("background service started", "entries", len(s.entries))
}

// Stop halts the runner and waits for in-flight jobs, or for ctx to expire.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	select {
	case <-s.c.Stop().Done():
		logger.Info("background service stopped")
	case <-ctx.Done():
		logger.Warn("background service stop timed out", "error", ctx.Err())
	}
}

// Entries lists registrations sorted by name.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for name, reg := range s.entries {
		e := s.c.Entry(reg.id)
		out = append(out, Entry{Name: name, Every: reg.every, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// cronLogger routes cron's own messages to the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
