package models

import (
	"errors"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
)

// TriggerSource identifies what asked for a reconciliation.
type TriggerSource string

const (
	TriggerEdit       TriggerSource = "edit"
	TriggerAppStart   TriggerSource = "app_start"
	TriggerBackground TriggerSource = "background"
	TriggerManual     TriggerSource = "manual"
)

// ReconciliationRecord is persisted after every completed run.
type ReconciliationRecord struct {
	LastRunAt        time.Time     `json:"last_run_at"`
	HorizonEnd       string        `json:"horizon_end"` // YYYY-MM-DD, exclusive
	RunID            string        `json:"run_id"`
	Trigger          TriggerSource `json:"trigger"`
	Added            int           `json:"added"`
	Removed          int           `json:"removed"`
	Failed           int           `json:"failed"`
	PermissionDenied bool          `json:"permission_denied"`
}

// IsZero reports whether no run has ever been recorded.
func (r ReconciliationRecord) IsZero() bool {
	return r.LastRunAt.IsZero()
}

// Stale reports whether a wake-up was probably missed: the last run is older than two
// intervals, or the recorded horizon no longer covers the window a fresh run would schedule.
func (r ReconciliationRecord) Stale(now time.Time, interval time.Duration, horizonDays int) bool {
	if r.IsZero() {
		return true
	}
	if interval > 0 && now.Sub(r.LastRunAt) > 2*interval {
		return true
	}
	end, err := time.ParseInLocation(constants.DateFormat, r.HorizonEnd, now.Location())
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return end.Before(today.AddDate(0, 0, horizonDays-1))
}

// Diff is the set of changes a reconciliation applies.
type Diff struct {
	ToAdd    []ScheduledNotification
	ToRemove []string
	// Rescheduled counts entries of ToAdd whose id is already pending at a different time.
	Rescheduled int
	Unchanged   int
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// ReconciliationResult summarises one run.
type ReconciliationResult struct {
	RunID            string
	Trigger          TriggerSource
	StartedAt        time.Time
	Added            []string
	Removed          []string
	Unchanged        int
	Errors           []error
	PermissionDenied bool
	// Aborted is set when the run stopped before completing every port call.
	Aborted bool
}

// Err joins every accumulated error, nil when the run was clean.
func (r ReconciliationResult) Err() error {
	return errors.Join(r.Errors...)
}
