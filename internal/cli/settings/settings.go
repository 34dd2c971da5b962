package settings

import (
	"fmt"
	"strings"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/status"
	"github.com/julianstephens/shiftbell/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Master  *bool    `help:"Enable or disable all notifications."`
	Enable  []string `help:"Notification types to enable (work_start, lunch_start, lunch_end, work_end)." sep:","`
	Disable []string `help:"Notification types to disable." sep:","`
	Time    []string `help:"Set a type's time of day as type=HH:MM." sep:","`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	settings, err := ctx.Settings.Get(runCtx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Notification Settings:")
		fmt.Printf("  Notifications Enabled: %v\n", settings.MasterEnabled)
		for _, t := range models.NotificationTypes {
			ts := settings.For(t)
			state := "off"
			if ts.Enabled {
				state = "on"
			}
			fmt.Printf("  %-22s %s  %s\n", t.Title()+":", ts.Time, state)
		}
		perm, err := ctx.Port.PermissionStatus(runCtx)
		if err != nil {
			fmt.Printf("\n  Permission:            unknown (%v)\n", err)
			return nil
		}
		fmt.Printf("\n  Permission:            %s\n", perm)
		if banner := status.PermissionBanner(perm, models.ReconciliationRecord{}); banner != "" {
			fmt.Println(banner)
		}
		return nil
	}

	if c.Master == nil && len(c.Enable) == 0 && len(c.Disable) == 0 && len(c.Time) == 0 {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	// Parse everything before writing so a bad flag changes nothing.
	enable, err := parseTypes(c.Enable)
	if err != nil {
		return err
	}
	disable, err := parseTypes(c.Disable)
	if err != nil {
		return err
	}
	times, err := parseTimes(c.Time)
	if err != nil {
		return err
	}

	_, err = ctx.Settings.Update(runCtx, func(s *models.NotificationSettings) error {
		if c.Master != nil {
			s.MasterEnabled = *c.Master
		}
		for _, t := range enable {
			ts := s.For(t)
			ts.Enabled = true
			s.Types[t] = ts
		}
		for _, t := range disable {
			ts := s.For(t)
			ts.Enabled = false
			s.Types[t] = ts
		}
		for t, hhmm := range times {
			ts := s.For(t)
			ts.Time = hhmm
			s.Types[t] = ts
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	ctx.ReportEdit()
	return nil
}

func parseTypes(raw []string) ([]models.NotificationType, error) {
	var out []models.NotificationType
	for _, s := range raw {
		t, err := models.ParseNotificationType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseTimes(raw []string) (map[models.NotificationType]string, error) {
	out := map[models.NotificationType]string{}
	for _, s := range raw {
		name, hhmm, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --time %q (expected type=HH:MM)", s)
		}
		t, err := models.ParseNotificationType(name)
		if err != nil {
			return nil, err
		}
		hhmm = strings.TrimSpace(hhmm)
		if !utils.ValidateTimeFormat(hhmm) {
			return nil, fmt.Errorf("invalid time for %s: %s (expected HH:MM)", t, hhmm)
		}
		out[t] = hhmm
	}
	return out, nil
}
