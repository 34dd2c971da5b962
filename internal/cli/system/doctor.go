package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/notifier"
	"github.com/julianstephens/shiftbell/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warnOnly checks report problems without failing the command.
	warnOnly bool
	// needsStorage checks are skipped when storage is unreachable.
	needsStorage bool
	// needsPort checks are skipped when the notification service is unreachable.
	needsPort bool
	run       func(context.Context, *cli.Context) error
}

var checks = []check{
	{name: "Storage reachable", run: checkStorageReachable},
	{name: "Schema version", needsStorage: true, run: checkSchemaVersion},
	{name: "Calendar data", needsStorage: true, run: checkCalendar},
	{name: "Settings", needsStorage: true, run: checkSettings},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Notification service reachable", run: checkPortReachable},
	{name: "Notification permission", warnOnly: true, needsPort: true, run: checkPermission},
	{name: "Last reconciliation", warnOnly: true, needsStorage: true, run: checkFreshness},
	{name: "Scheduled notifications in sync", warnOnly: true, needsStorage: true, needsPort: true, run: checkInSync},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	runCtx, cancel := ctx.RunContext()
	defer cancel()

	hasError := false
	storageOK, portOK := true, true
	for _, c := range checks {
		if c.needsStorage && !storageOK {
			fmt.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		if c.needsPort && !portOK {
			fmt.Printf("⊘ %s: SKIPPED (notification service not reachable)\n", c.name)
			continue
		}

		err := c.run(runCtx, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}

		if err != nil {
			switch c.name {
			case "Storage reachable":
				storageOK = false
			case "Notification service reachable":
				portOK = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx context.Context, app *cli.Context) error {
	if err := app.Store.Load(); err != nil {
		return fmt.Errorf("failed to load %s: %w", app.Store.Describe(), err)
	}
	if _, err := app.Runs.Get(ctx); err != nil {
		return err
	}
	return nil
}

func checkSchemaVersion(_ context.Context, app *cli.Context) error {
	m, ok := app.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d; upgrade shiftbell", current, latest)
	}
	if current < latest {
		return fmt.Errorf("database schema version %d, latest is %d; run 'shiftbell migrate'", current, latest)
	}
	return nil
}

func checkCalendar(ctx context.Context, app *cli.Context) error {
	cal, err := app.Calendar.Get(ctx)
	if err != nil {
		return err
	}
	return cal.Validate()
}

func checkSettings(ctx context.Context, app *cli.Context) error {
	s, err := app.Settings.Get(ctx)
	if err != nil {
		return err
	}
	return s.Validate()
}

func checkClockTimezone(_ context.Context, app *cli.Context) error {
	if _, err := app.Config.Location(); err != nil {
		return err
	}

	// Check if time is in a reasonable range (after 2020 and before 2100)
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkPortReachable(ctx context.Context, app *cli.Context) error {
	_, err := app.Port.PermissionStatus(ctx)
	return err
}

func checkPermission(ctx context.Context, app *cli.Context) error {
	perm, err := app.Port.PermissionStatus(ctx)
	if err != nil {
		return err
	}
	if perm != notifier.PermissionGranted {
		return fmt.Errorf("permission is %s; run 'shiftbell permission request'", perm)
	}
	return nil
}

func checkFreshness(ctx context.Context, app *cli.Context) error {
	rec, err := app.Runs.Get(ctx)
	if err != nil {
		return err
	}
	if rec.IsZero() {
		return fmt.Errorf("no reconciliation has run yet; run 'shiftbell reconcile' or start 'shiftbell daemon'")
	}
	now := app.Now()
	if rec.Stale(now, app.Config.BackgroundInterval, app.Engine.HorizonDays()) {
		return fmt.Errorf("last run %s ago (covered to %s); a background wake-up was probably missed",
			now.Sub(rec.LastRunAt).Round(time.Minute), rec.HorizonEnd)
	}
	return nil
}

func checkInSync(ctx context.Context, app *cli.Context) error {
	diff, err := app.Reconciler.Plan(ctx)
	if err != nil {
		return err
	}
	if !diff.Empty() {
		return fmt.Errorf("%d to add, %d to remove; run 'shiftbell reconcile'", len(diff.ToAdd), len(diff.ToRemove))
	}
	return nil
}
