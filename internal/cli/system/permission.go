package system

import (
	"fmt"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/notifier"
)

type PermissionStatusCmd struct{}

func (c *PermissionStatusCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	perm, err := ctx.Port.PermissionStatus(runCtx)
	if err != nil {
		return fmt.Errorf("failed to query notification permission: %w", err)
	}
	fmt.Printf("Notification permission: %s\n", perm)
	return nil
}

// PermissionRequestCmd asks the OS for permission and, once granted, schedules
// whatever is missing.
type PermissionRequestCmd struct{}

func (c *PermissionRequestCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	granted, err := ctx.Port.RequestPermission(runCtx)
	if err != nil {
		return fmt.Errorf("failed to request notification permission: %w", err)
	}
	if !granted {
		fmt.Printf("Notification permission: %s\n", notifier.PermissionDenied)
		fmt.Println("Allow notifications for shiftbell in your system settings, then run this again.")
		return nil
	}

	fmt.Printf("Notification permission: %s\n", notifier.PermissionGranted)
	out := ctx.Reconciler.Trigger(runCtx, models.TriggerManual)
	if !out.Coalesced {
		fmt.Println(cli.FormatResult(out.Result))
	}
	return nil
}
