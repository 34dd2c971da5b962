// Package status builds the read model shown by `shiftbell status`: today's
// classification, what the notification service will fire next, and how fresh
// the last reconciliation is.
package status

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/notifier"
)

type DaySource interface {
	Day(ctx context.Context, date string) (models.DayType, error)
}

type RecordSource interface {
	Get(ctx context.Context) (models.ReconciliationRecord, error)
}

type Sources struct {
	Calendar DaySource
	Records  RecordSource
	Port     notifier.Port
}

type Options struct {
	Limit       int
	Interval    time.Duration
	HorizonDays int
}

// Snapshot is a point-in-time view. Upcoming comes from the port, never from the
// engine, so it shows what will actually fire.
type Snapshot struct {
	Now        time.Time
	Today      models.DayType
	Upcoming   []models.PendingNotification
	LastRun    models.ReconciliationRecord
	Stale      bool
	Permission notifier.Permission
	// PortErr is set when the notification service could not be queried.
	PortErr error
}

func Build(ctx context.Context, src Sources, now time.Time, opts Options) (Snapshot, error) {
	if opts.Limit <= 0 {
		opts.Limit = constants.StatusNextLimit
	}
	snap := Snapshot{Now: now}

	today, err := src.Calendar.Day(ctx, now.Format(constants.DateFormat))
	if err != nil {
		return Snapshot{}, err
	}
	snap.Today = today

	rec, err := src.Records.Get(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.LastRun = rec
	snap.Stale = rec.Stale(now, opts.Interval, opts.HorizonDays)

	perm, err := src.Port.PermissionStatus(ctx)
	if err != nil {
		snap.PortErr = err
		return snap, nil
	}
	snap.Permission = perm

	pending, err := src.Port.ListPending(ctx)
	if err != nil {
		snap.PortErr = err
		return snap, nil
	}
	snap.Upcoming = upcoming(pending, now, opts.Limit)
	return snap, nil
}

func upcoming(pending []models.PendingNotification, now time.Time, limit int) []models.PendingNotification {
	var out []models.PendingNotification
	for _, p := range pending {
		if !models.IsManagedID(p.ID) || p.FiresAt.IsZero() || p.FiresAt.Before(now) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FiresAt.Equal(out[j].FiresAt) {
			return out[i].FiresAt.Before(out[j].FiresAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// PermissionBanner returns the persistent warning shown while notifications
// cannot be delivered, or "" when permission is granted.
func PermissionBanner(p notifier.Permission, rec models.ReconciliationRecord) string {
	switch {
	case p == notifier.PermissionDenied || (p == "" && rec.PermissionDenied):
		return warnStyle.Render("⚠ Notifications are blocked. Run 'shiftbell permission request' or allow them in system settings.")
	case p == notifier.PermissionNotDetermined:
		return warnStyle.Render("⚠ Notification permission not requested yet. Run 'shiftbell permission request'.")
	}
	return ""
}

// Render writes the snapshot for a terminal.
func Render(w io.Writer, s Snapshot) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render(s.Now.Format("Monday, 2 January 2006")))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Today"), s.Today.Label())

	if banner := PermissionBanner(s.Permission, s.LastRun); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Next notifications"))
	b.WriteString("\n")
	switch {
	case s.PortErr != nil:
		b.WriteString(warnStyle.Render(fmt.Sprintf("notification service unavailable: %v", s.PortErr)))
		b.WriteString("\n")
	case len(s.Upcoming) == 0:
		b.WriteString("  none scheduled\n")
	default:
		for _, p := range s.Upcoming {
			title := p.Type
			if t, _, err := models.ParseNotificationID(p.ID); err == nil {
				title = t.Title()
			}
			fmt.Fprintf(&b, "  %s  %s\n", timeStyle.Render(p.FiresAt.In(s.Now.Location()).Format("Mon 02 Jan 15:04")), title)
		}
	}

	b.WriteString("\n")
	if s.LastRun.IsZero() {
		fmt.Fprintf(&b, "%snever\n", labelStyle.Render("Last run"))
	} else {
		fmt.Fprintf(&b, "%s%s (%s, +%d -%d", labelStyle.Render("Last run"),
			s.LastRun.LastRunAt.In(s.Now.Location()).Format("2006-01-02 15:04"), s.LastRun.Trigger, s.LastRun.Added, s.LastRun.Removed)
		if s.LastRun.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", s.LastRun.Failed)
		}
		b.WriteString(")\n")
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Covered to"), s.LastRun.HorizonEnd)
	}
	if s.Stale {
		b.WriteString(warnStyle.Render("⚠ Schedule may be out of date. Run 'shiftbell reconcile' or start the daemon."))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
