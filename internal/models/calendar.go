package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
)

// Calendar maps YYYY-MM-DD dates to their classification. A missing date is Unset.
type Calendar map[string]DayType

// CalendarDocument is the persisted form of the whole calendar.
type CalendarDocument struct {
	Version int      `json:"version"`
	Days    Calendar `json:"days"`
}

// Get returns the classification for date, Unset when absent.
func (c Calendar) Get(date string) DayType {
	if t, ok := c[date]; ok {
		return t
	}
	return DayTypeUnset
}

// On returns the classification for the calendar date of t.
func (c Calendar) On(t time.Time) DayType {
	return c.Get(t.Format(constants.DateFormat))
}

// Clone returns an independent copy.
func (c Calendar) Clone() Calendar {
	out := make(Calendar, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Apply overwrites a single record. Unset records are dropped from the map.
func (c Calendar) Apply(rec DayRecord) {
	if rec.Type == DayTypeUnset {
		delete(c, rec.Date)
		return
	}
	c[rec.Date] = rec.Type
}

// Month returns the records of the given month in date order, Unset days included.
func (c Calendar) Month(year int, month time.Month) []DayRecord {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var out []DayRecord
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		date := d.Format(constants.DateFormat)
		out = append(out, DayRecord{Date: date, Type: c.Get(date)})
	}
	return out
}

// ClearMonth removes every record that falls in the given month.
func (c Calendar) ClearMonth(year int, month time.Month) int {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	cleared := 0
	for date := range c {
		if strings.HasPrefix(date, prefix) {
			delete(c, date)
			cleared++
		}
	}
	return cleared
}

// Dates returns the stored dates in ascending order.
func (c Calendar) Dates() []string {
	dates := make([]string, 0, len(c))
	for d := range c {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Validate checks every key is a real date and every value a known classification.
func (c Calendar) Validate() error {
	for date, t := range c {
		if _, err := time.Parse(constants.DateFormat, date); err != nil {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
		}
		if !t.Valid() {
			return fmt.Errorf("invalid day type %q for %s", t, date)
		}
	}
	return nil
}

// ParseMonth parses a YYYY-MM month identifier.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(constants.MonthFormat, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month format (expected YYYY-MM): %w", err)
	}
	return t.Year(), t.Month(), nil
}
