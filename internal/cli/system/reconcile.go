package system

import (
	"fmt"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/models"
)

type ReconcileCmd struct {
	DryRun bool `help:"Print the changes a run would make without applying them."`
}

func (c *ReconcileCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := ctx.RunContext()
	defer cancel()

	if c.DryRun {
		diff, err := ctx.Reconciler.Plan(runCtx)
		if err != nil {
			return fmt.Errorf("failed to plan reconciliation: %w", err)
		}
		printDiff(diff)
		return nil
	}

	out := ctx.Reconciler.Trigger(runCtx, models.TriggerManual)
	if out.Coalesced {
		fmt.Println("A reconciliation is already running; it will run again to pick up this request.")
		return nil
	}
	res := out.Result
	fmt.Println(cli.FormatResult(res))
	for _, err := range res.Errors {
		fmt.Printf("  ❌ %v\n", err)
	}
	if res.PermissionDenied {
		fmt.Println("Notification permission is denied. Run 'shiftbell permission request'.")
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("reconciliation finished with %d error(s)", len(res.Errors))
	}
	return nil
}

func printDiff(diff models.Diff) {
	if diff.Empty() {
		fmt.Printf("Nothing to do: %d notification(s) already scheduled.\n", diff.Unchanged)
		return
	}
	for _, id := range diff.ToRemove {
		fmt.Printf("  - %s\n", id)
	}
	for _, n := range diff.ToAdd {
		fmt.Printf("  + %s at %s\n", n.ID, n.FiresAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d to add (%d rescheduled), %d to remove, %d unchanged\n",
		len(diff.ToAdd), diff.Rescheduled, len(diff.ToRemove), diff.Unchanged)
}
