package reconciler

import (
	"sort"

	"github.com/julianstephens/shiftbell/internal/models"
)

// ComputeDiff compares the desired set with what the port holds, by id.
// Pending ids outside the app namespace are ignored. An id pending at a different
// fire time (its type's time was edited) is scheduled again; Schedule overwrites.
// A pending entry without a fire time cannot be compared, so it is scheduled again too.
func ComputeDiff(desired []models.ScheduledNotification, pending []models.PendingNotification) models.Diff {
	held := make(map[string]models.PendingNotification, len(pending))
	for _, p := range pending {
		if models.IsManagedID(p.ID) {
			held[p.ID] = p
		}
	}

	var diff models.Diff
	want := make(map[string]struct{}, len(desired))
	for _, n := range desired {
		want[n.ID] = struct{}{}
		p, ok := held[n.ID]
		switch {
		case !ok:
			diff.ToAdd = append(diff.ToAdd, n)
		case p.FiresAt.IsZero() || !p.FiresAt.Equal(n.FiresAt):
			diff.ToAdd = append(diff.ToAdd, n)
			diff.Rescheduled++
		default:
			diff.Unchanged++
		}
	}

	for id := range held {
		if _, ok := want[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}
	sort.Strings(diff.ToRemove)
	return diff
}
