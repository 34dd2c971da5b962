package system

import (
	"fmt"

	"github.com/julianstephens/shiftbell/internal/cli"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized shiftbell storage at: %s\n", ctx.Store.Describe())

	runCtx, cancel := ctx.RunContext()
	defer cancel()
	seeded, err := ctx.Settings.Seed(runCtx)
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	if seeded {
		fmt.Println("Saved default notification settings.")
	}
	return nil
}
