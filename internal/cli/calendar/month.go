package calendar

import (
	"fmt"
	"time"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
)

func resolveMonth(ctx *cli.Context, arg string) (int, time.Month, error) {
	if arg == "" {
		now := ctx.Now()
		return now.Year(), now.Month(), nil
	}
	return models.ParseMonth(arg)
}

type MonthShowCmd struct {
	Month string `arg:"" optional:"" help:"Month (YYYY-MM). Defaults to the current month."`
}

func (c *MonthShowCmd) Run(ctx *cli.Context) error {
	year, month, err := resolveMonth(ctx, c.Month)
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	recs, err := ctx.Calendar.Month(runCtx, year, month)
	if err != nil {
		return fmt.Errorf("failed to read calendar: %w", err)
	}

	fmt.Printf("%s %d\n", month, year)
	counts := map[models.DayType]int{}
	for _, rec := range recs {
		d, _ := time.Parse(constants.DateFormat, rec.Date)
		fmt.Printf("  %s %s  %s\n", rec.Date, d.Weekday().String()[:3], rec.Type.Label())
		counts[rec.Type]++
	}
	fmt.Println()
	for _, dt := range models.DayTypes {
		fmt.Printf("  %-18s %d\n", dt.Label(), counts[dt])
	}
	return nil
}

type MonthFillCmd struct {
	Month     string `arg:"" optional:"" help:"Month (YYYY-MM). Defaults to the current month."`
	Type      string `help:"Classification to apply." default:"work_day"`
	Weekdays  string `help:"Comma-separated weekdays (mon,tue or 0-6, or 'weekdays')." default:"weekdays"`
	Overwrite bool   `help:"Replace days that already have a classification."`
}

func (c *MonthFillCmd) Run(ctx *cli.Context) error {
	year, month, err := resolveMonth(ctx, c.Month)
	if err != nil {
		return err
	}
	dt, err := models.ParseDayType(c.Type)
	if err != nil {
		return err
	}
	weekdays, err := cli.ParseWeekdays(c.Weekdays)
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	changed, err := ctx.Calendar.FillMonth(runCtx, year, month, weekdays, dt, c.Overwrite)
	if err != nil {
		return fmt.Errorf("failed to fill month: %w", err)
	}
	fmt.Printf("Set %d day(s) in %s %d to %s.\n", changed, month, year, dt.Label())
	ctx.ReportEdit()
	return nil
}

type MonthClearCmd struct {
	Month string `arg:"" optional:"" help:"Month (YYYY-MM). Defaults to the current month."`
}

func (c *MonthClearCmd) Run(ctx *cli.Context) error {
	year, month, err := resolveMonth(ctx, c.Month)
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	cleared, err := ctx.Calendar.ClearMonth(runCtx, year, month)
	if err != nil {
		return fmt.Errorf("failed to clear month: %w", err)
	}
	fmt.Printf("Cleared %d day(s) in %s %d.\n", cleared, month, year)
	ctx.ReportEdit()
	return nil
}
