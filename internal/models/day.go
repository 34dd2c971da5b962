package models

import (
	"fmt"
	"strings"
)

// DayType is the classification a user assigns to a calendar date.
type DayType string

const (
	DayTypeUnset            DayType = "unset"
	DayTypeWorkDay          DayType = "work_day"
	DayTypeAnnualLeave      DayType = "annual_leave"
	DayTypeExternalTraining DayType = "external_training"
)

// DayTypes lists every classification in tap-cycle order.
var DayTypes = []DayType{
	DayTypeUnset,
	DayTypeWorkDay,
	DayTypeAnnualLeave,
	DayTypeExternalTraining,
}

// Next returns the classification that follows d in the tap cycle:
// Unset -> WorkDay -> AnnualLeave -> ExternalTraining -> Unset.
// Unknown values restart the cycle at WorkDay, as if they were Unset.
func (d DayType) Next() DayType {
	switch d {
	case DayTypeUnset:
		return DayTypeWorkDay
	case DayTypeWorkDay:
		return DayTypeAnnualLeave
	case DayTypeAnnualLeave:
		return DayTypeExternalTraining
	case DayTypeExternalTraining:
		return DayTypeUnset
	default:
		return DayTypeWorkDay
	}
}

// Valid reports whether d is one of the known classifications.
func (d DayType) Valid() bool {
	switch d {
	case DayTypeUnset, DayTypeWorkDay, DayTypeAnnualLeave, DayTypeExternalTraining:
		return true
	}
	return false
}

// GeneratesNotifications is true only for work days.
func (d DayType) GeneratesNotifications() bool {
	return d == DayTypeWorkDay
}

// Label returns a human-readable name.
func (d DayType) Label() string {
	switch d {
	case DayTypeWorkDay:
		return "Work day"
	case DayTypeAnnualLeave:
		return "Annual leave"
	case DayTypeExternalTraining:
		return "External training"
	default:
		return "Unset"
	}
}

// ParseDayType accepts the stored value or a short alias (work, leave, training, none).
func ParseDayType(s string) (DayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unset", "none", "clear", "":
		return DayTypeUnset, nil
	case "work_day", "work", "workday":
		return DayTypeWorkDay, nil
	case "annual_leave", "leave", "al":
		return DayTypeAnnualLeave, nil
	case "external_training", "training", "et":
		return DayTypeExternalTraining, nil
	}
	return "", fmt.Errorf("invalid day type: %s", s)
}

// DayRecord is the classification of one date.
type DayRecord struct {
	Date string  `json:"date"` // YYYY-MM-DD
	Type DayType `json:"type"`
}
