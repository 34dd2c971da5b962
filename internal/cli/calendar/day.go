package calendar

import (
	"fmt"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/utils"
)

type DayShowCmd struct {
	Date string `arg:"" optional:"" help:"Date (YYYY-MM-DD, today, tomorrow). Defaults to today."`
}

func (c *DayShowCmd) Run(ctx *cli.Context) error {
	date, err := utils.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	dt, err := ctx.Calendar.Day(runCtx, date)
	if err != nil {
		return fmt.Errorf("failed to read calendar: %w", err)
	}
	fmt.Printf("%s  %s\n", date, dt.Label())
	return nil
}

// DayTapCmd advances a date one step through the classification cycle, as a tap
// on the calendar grid does.
type DayTapCmd struct {
	Date string `arg:"" optional:"" help:"Date (YYYY-MM-DD, today, tomorrow). Defaults to today."`
}

func (c *DayTapCmd) Run(ctx *cli.Context) error {
	date, err := utils.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	next, err := ctx.Calendar.Cycle(runCtx, date)
	if err != nil {
		return fmt.Errorf("failed to save day: %w", err)
	}
	fmt.Printf("%s  %s\n", date, next.Label())
	ctx.ReportEdit()
	return nil
}

type DaySetCmd struct {
	Date string `arg:"" help:"Date (YYYY-MM-DD, today, tomorrow)."`
	Type string `arg:"" help:"Classification: work_day, annual_leave, external_training or unset."`
}

func (c *DaySetCmd) Run(ctx *cli.Context) error {
	date, err := utils.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}
	dt, err := models.ParseDayType(c.Type)
	if err != nil {
		return err
	}
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	if err := ctx.Calendar.Set(runCtx, models.DayRecord{Date: date, Type: dt}); err != nil {
		return fmt.Errorf("failed to save day: %w", err)
	}
	fmt.Printf("%s  %s\n", date, dt.Label())
	ctx.ReportEdit()
	return nil
}
