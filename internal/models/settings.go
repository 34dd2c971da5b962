package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
)

// TypeSettings configures a single notification type.
type TypeSettings struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // HH:MM format
}

// NotificationSettings is the singleton preferences record.
type NotificationSettings struct {
	Version       int                               `json:"version"`
	MasterEnabled bool                              `json:"master_enabled"`
	Types         map[NotificationType]TypeSettings `json:"types"`
}

// DefaultSettings returns the settings seeded by init.
func DefaultSettings() NotificationSettings {
	return NotificationSettings{
		Version:       constants.SettingsDocumentVersion,
		MasterEnabled: constants.DefaultMasterEnabled,
		Types: map[NotificationType]TypeSettings{
			NotificationWorkStart:  {Enabled: constants.DefaultTypeEnabled, Time: constants.DefaultWorkStartTime},
			NotificationLunchStart: {Enabled: constants.DefaultTypeEnabled, Time: constants.DefaultLunchStartTime},
			NotificationLunchEnd:   {Enabled: constants.DefaultTypeEnabled, Time: constants.DefaultLunchEndTime},
			NotificationWorkEnd:    {Enabled: constants.DefaultTypeEnabled, Time: constants.DefaultWorkEndTime},
		},
	}
}

// For returns the settings of type t. A type missing from the record is disabled.
func (s NotificationSettings) For(t NotificationType) TypeSettings {
	if s.Types == nil {
		return TypeSettings{}
	}
	return s.Types[t]
}

// Active reports whether notifications of type t should be generated at all.
func (s NotificationSettings) Active(t NotificationType) bool {
	return s.MasterEnabled && s.For(t).Enabled
}

// Clone returns a copy that shares no map with s.
func (s NotificationSettings) Clone() NotificationSettings {
	out := s
	out.Types = make(map[NotificationType]TypeSettings, len(s.Types))
	for k, v := range s.Types {
		out.Types[k] = v
	}
	return out
}

// WithType returns a copy of s with type t replaced.
func (s NotificationSettings) WithType(t NotificationType, ts TypeSettings) NotificationSettings {
	out := s.Clone()
	out.Types[t] = ts
	return out
}

func (s NotificationSettings) Validate() error {
	for t, ts := range s.Types {
		if !t.Valid() {
			return fmt.Errorf("unknown notification type %q", t)
		}
		if _, err := time.Parse(constants.TimeFormat, ts.Time); err != nil {
			return fmt.Errorf("invalid time for %s (expected HH:MM): %w", t, err)
		}
	}
	return nil
}

// ApplyDefaultSettings fills in missing types and times.
func ApplyDefaultSettings(settings *NotificationSettings) {
	defaults := DefaultSettings()
	if settings.Version == 0 {
		settings.Version = constants.SettingsDocumentVersion
	}
	if settings.Types == nil {
		settings.Types = make(map[NotificationType]TypeSettings, len(NotificationTypes))
	}
	for _, t := range NotificationTypes {
		ts, ok := settings.Types[t]
		if !ok {
			settings.Types[t] = defaults.Types[t]
			continue
		}
		if ts.Time == "" {
			ts.Time = defaults.Types[t].Time
			settings.Types[t] = ts
		}
	}
}
