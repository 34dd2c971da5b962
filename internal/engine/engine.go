// Package engine computes the notifications a calendar and settings call for.
// It performs no I/O and never blocks.
package engine

import (
	"sort"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/utils"
)

type Engine struct {
	horizonDays int
}

// New returns an engine covering horizonDays days starting today.
// Non-positive values fall back to the default horizon.
func New(horizonDays int) *Engine {
	if horizonDays <= 0 {
		horizonDays = constants.DefaultHorizonDays
	}
	return &Engine{horizonDays: horizonDays}
}

func (e *Engine) HorizonDays() int {
	return e.horizonDays
}

// Window returns the horizon [start, end) as local midnights in now's location.
func (e *Engine) Window(now time.Time) (start, end time.Time) {
	start = utils.StartOfDay(now)
	end = time.Date(start.Year(), start.Month(), start.Day()+e.horizonDays, 0, 0, 0, 0, start.Location())
	return start, end
}

// HorizonEnd is the exclusive end date of the window, YYYY-MM-DD.
func (e *Engine) HorizonEnd(now time.Time) string {
	_, end := e.Window(now)
	return end.Format(constants.DateFormat)
}

// Compute returns the desired notification set ordered by fire time.
// Only WorkDay dates contribute. Entries firing before now are left out, and a
// type whose stored time does not parse is skipped.
func (e *Engine) Compute(cal models.Calendar, settings models.NotificationSettings, now time.Time) []models.ScheduledNotification {
	if !settings.MasterEnabled {
		return nil
	}

	var active []models.NotificationType
	for _, t := range models.NotificationTypes {
		if settings.Active(t) {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil
	}

	start, _ := e.Window(now)
	var out []models.ScheduledNotification
	for i := 0; i < e.horizonDays; i++ {
		day := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, start.Location())
		date := day.Format(constants.DateFormat)
		if !cal.Get(date).GeneratesNotifications() {
			continue
		}
		for _, t := range active {
			firesAt, err := utils.AtTimeOfDay(day, settings.For(t).Time)
			if err != nil || firesAt.Before(now) {
				continue
			}
			out = append(out, models.ScheduledNotification{
				ID:         models.NotificationID(t, date),
				Type:       t,
				FiresAt:    firesAt,
				SourceDate: date,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FiresAt.Equal(out[j].FiresAt) {
			return out[i].FiresAt.Before(out[j].FiresAt)
		}
		return out[i].Type.Rank() < out[j].Type.Rank()
	})
	return out
}
