package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/status"
)

type StatusCmd struct {
	Limit int `help:"Number of upcoming notifications to show." default:"5"`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	snap, err := status.Build(runCtx, status.Sources{
		Calendar: ctx.Calendar,
		Records:  ctx.Runs,
		Port:     ctx.Port,
	}, ctx.Now(), status.Options{
		Limit:       c.Limit,
		Interval:    ctx.Config.BackgroundInterval,
		HorizonDays: ctx.Engine.HorizonDays(),
	})
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	return status.Render(os.Stdout, snap)
}
