package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
)

// NotificationType is one of the four daily notifications.
type NotificationType string

const (
	NotificationWorkStart  NotificationType = "work_start"
	NotificationLunchStart NotificationType = "lunch_start"
	NotificationLunchEnd   NotificationType = "lunch_end"
	NotificationWorkEnd    NotificationType = "work_end"
)

// NotificationTypes lists the types in the order they occur during a day.
var NotificationTypes = []NotificationType{
	NotificationWorkStart,
	NotificationLunchStart,
	NotificationLunchEnd,
	NotificationWorkEnd,
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationWorkStart, NotificationLunchStart, NotificationLunchEnd, NotificationWorkEnd:
		return true
	}
	return false
}

// Rank is the position of t within a day, used to order notifications that fire together.
func (t NotificationType) Rank() int {
	for i, nt := range NotificationTypes {
		if nt == t {
			return i
		}
	}
	return len(NotificationTypes)
}

// Title is the headline shown by the OS notification.
func (t NotificationType) Title() string {
	switch t {
	case NotificationWorkStart:
		return "Work starts"
	case NotificationLunchStart:
		return "Lunch break"
	case NotificationLunchEnd:
		return "Back to work"
	case NotificationWorkEnd:
		return "Work ends"
	default:
		return "Reminder"
	}
}

// ParseNotificationType accepts the stored value or a dashed alias (work-start).
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("invalid notification type: %s", s)
	}
	return t, nil
}

// ScheduledNotification is one notification the engine wants to exist.
type ScheduledNotification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	FiresAt    time.Time        `json:"fires_at"`
	SourceDate string           `json:"source_date"` // YYYY-MM-DD
}

// Body is the notification text.
func (n ScheduledNotification) Body() string {
	return fmt.Sprintf("%s at %s", n.Type.Title(), n.FiresAt.Format(constants.TimeFormat))
}

// PendingNotification is what the notification service reports as currently scheduled.
type PendingNotification struct {
	ID      string    `json:"id"`
	FiresAt time.Time `json:"fires_at"`
	Type    string    `json:"type"`
}

// NotificationID builds the deterministic id for a (type, date) pair.
func NotificationID(t NotificationType, sourceDate string) string {
	return constants.NotificationIDPrefix + string(t) + ":" + sourceDate
}

// IsManagedID reports whether id belongs to this app's namespace.
func IsManagedID(id string) bool {
	return strings.HasPrefix(id, constants.NotificationIDPrefix)
}

// ParseNotificationID inverts NotificationID.
func ParseNotificationID(id string) (NotificationType, string, error) {
	if !IsManagedID(id) {
		return "", "", fmt.Errorf("notification id %q is outside the %s namespace", id, constants.NotificationIDPrefix)
	}
	rest := strings.TrimPrefix(id, constants.NotificationIDPrefix)
	typ, date, ok := strings.Cut(rest, ":")
	if !ok {
		return "", "", fmt.Errorf("malformed notification id %q", id)
	}
	t := NotificationType(typ)
	if !t.Valid() {
		return "", "", fmt.Errorf("malformed notification id %q: unknown type %s", id, typ)
	}
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return "", "", fmt.Errorf("malformed notification id %q: %w", id, err)
	}
	return t, date, nil
}
