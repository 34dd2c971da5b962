package storage

import (
	"context"
	"sync"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
)

// SettingsStore persists the singleton NotificationSettings record.
type SettingsStore struct {
	rs   RecordStore
	mu   sync.Mutex
	subs subscribers
}

func NewSettingsStore(rs RecordStore) *SettingsStore {
	return &SettingsStore{rs: rs}
}

// Get returns the stored settings with missing types filled from the defaults.
// Settings never written are the defaults.
func (s *SettingsStore) Get(ctx context.Context) (models.NotificationSettings, error) {
	var settings models.NotificationSettings
	found, err := readDocument(ctx, s.rs, constants.SettingsRecordKey, &settings)
	if err != nil {
		return models.NotificationSettings{}, err
	}
	if !found {
		return models.DefaultSettings(), nil
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

// Set replaces the whole record.
func (s *SettingsStore) Set(ctx context.Context, settings models.NotificationSettings) error {
	settings = settings.Clone()
	models.ApplyDefaultSettings(&settings)
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	err := writeDocument(ctx, s.rs, constants.SettingsRecordKey, settings)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.subs.notify(ctx)
	return nil
}

// Update applies fn to the current settings and writes the result.
func (s *SettingsStore) Update(ctx context.Context, fn func(*models.NotificationSettings) error) (models.NotificationSettings, error) {
	s.mu.Lock()
	current, err := s.Get(ctx)
	if err != nil {
		s.mu.Unlock()
		return models.NotificationSettings{}, err
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return models.NotificationSettings{}, err
	}
	models.ApplyDefaultSettings(&next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return models.NotificationSettings{}, err
	}
	err = writeDocument(ctx, s.rs, constants.SettingsRecordKey, next)
	s.mu.Unlock()
	if err != nil {
		return models.NotificationSettings{}, err
	}
	s.subs.notify(ctx)
	return next, nil
}

// Seed writes the defaults if no settings exist yet. It does not notify subscribers.
func (s *SettingsStore) Seed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing models.NotificationSettings
	found, err := readDocument(ctx, s.rs, constants.SettingsRecordKey, &existing)
	if err != nil || found {
		return false, err
	}
	return true, writeDocument(ctx, s.rs, constants.SettingsRecordKey, models.DefaultSettings())
}

func (s *SettingsStore) Subscribe(fn Listener) (unsubscribe func()) {
	return s.subs.add(fn)
}
