package reconciler

import (
	"context"

	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/models"
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateRunningRerun
)

func (s runState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateRunningRerun:
		return "running-with-pending-rerun"
	default:
		return "idle"
	}
}

// Outcome reports what a Trigger call did.
type Outcome struct {
	// Result is the last run this call executed. Zero when Coalesced.
	Result models.ReconciliationResult
	// Coalesced is set when a run was already in flight; that run will re-run once
	// after it finishes and observe the caller's committed edit.
	Coalesced bool
	// Runs counts the runs this call executed, follow-ups included.
	Runs int
}

// Trigger requests a reconciliation. At most one run is in flight: a trigger that
// arrives during a run sets the single pending flag and returns immediately, and the
// in-flight caller runs once more when it finishes. Runs in other processes are
// excluded by the Locker; a trigger waits for theirs to finish.
func (r *Reconciler) Trigger(ctx context.Context, source models.TriggerSource) Outcome {
	r.mu.Lock()
	if r.state != stateIdle {
		r.state = stateRunningRerun
		r.rerunSource = source
		r.mu.Unlock()
		logger.Debug("reconciliation coalesced", "trigger", source)
		return Outcome{Coalesced: true}
	}
	r.state = stateRunning
	r.mu.Unlock()

	var out Outcome
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	defer func() { cancel() }()
	for {
		out.Result = r.runExclusive(runCtx, source)
		out.Runs++

		r.mu.Lock()
		if r.state != stateRunningRerun {
			r.state = stateIdle
			r.mu.Unlock()
			return out
		}
		r.state = stateRunning
		source = r.rerunSource
		r.mu.Unlock()

		if runCtx.Err() != nil {
			// the caller's deadline is spent; the follow-up runs on its own
			cancel()
			runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), r.rerunTimeout)
			logger.Debug("follow-up run outlives its caller", "trigger", source, "timeout", r.rerunTimeout)
		}
	}
}

// State reports idle, running, or running-with-pending-rerun.
func (r *Reconciler) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.String()
}
