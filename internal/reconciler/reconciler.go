// Package reconciler keeps the notification service's pending set equal to
// what the calendar and settings call for.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/engine"
	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/models"
	"github.com/julianstephens/shiftbell/internal/notifier"
)

type CalendarSource interface {
	Get(ctx context.Context) (models.Calendar, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (models.NotificationSettings, error)
}

type RecordStore interface {
	Get(ctx context.Context) (models.ReconciliationRecord, error)
	Set(ctx context.Context, rec models.ReconciliationRecord) error
}

// Locker excludes runs of other processes that share the store and the port.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context) error { return nil }
func (nopLocker) Unlock() error              { return nil }

type Reconciler struct {
	calendar CalendarSource
	settings SettingsSource
	records  RecordStore
	port     notifier.Port
	engine   *engine.Engine
	now      func() time.Time
	lock     Locker
	// rerunTimeout bounds a follow-up run that outlives its caller's context.
	rerunTimeout time.Duration

	mu          sync.Mutex
	state       runState
	rerunSource models.TriggerSource
}

type Option func(*Reconciler)

// WithClock overrides time.Now. The clock's location is the user's timezone.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithLocker makes every run hold l for its whole duration.
func WithLocker(l Locker) Option {
	return func(r *Reconciler) { r.lock = l }
}

// WithRerunTimeout sets the deadline of a follow-up run started after the
// triggering caller's context is done.
func WithRerunTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.rerunTimeout = d }
}

func New(cal CalendarSource, settings SettingsSource, records RecordStore, port notifier.Port, eng *engine.Engine, opts ...Option) *Reconciler {
	r := &Reconciler{
		calendar: cal,
		settings: settings,
		records:  records,
		port:     port,
		engine:   eng,
		now:      time.Now,
		lock:     nopLocker{},

		rerunTimeout: constants.DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// snapshot is everything a run needs before it touches the port.
type snapshot struct {
	now     time.Time
	desired []models.ScheduledNotification
	diff    models.Diff
}

func (r *Reconciler) prepare(ctx context.Context) (snapshot, error) {
	cal, err := r.calendar.Get(ctx)
	if err != nil {
		return snapshot{}, err
	}
	settings, err := r.settings.Get(ctx)
	if err != nil {
		return snapshot{}, err
	}

	snap := snapshot{now: r.now()}
	if settings.MasterEnabled {
		snap.desired = r.engine.Compute(cal, settings, snap.now)
	}

	pending, err := r.port.ListPending(ctx)
	if err != nil {
		return snapshot{}, err
	}
	snap.diff = ComputeDiff(snap.desired, pending)
	return snap, nil
}

// Plan computes the diff a run would apply without applying it.
func (r *Reconciler) Plan(ctx context.Context) (models.Diff, error) {
	snap, err := r.prepare(ctx)
	if err != nil {
		return models.Diff{}, err
	}
	return snap.diff, nil
}

// Run performs one reconciliation, ignoring the coalescing guard. Callers other
// than tests go through Trigger.
func (r *Reconciler) Run(ctx context.Context, source models.TriggerSource) models.ReconciliationResult {
	res := models.ReconciliationResult{
		RunID:     uuid.NewString(),
		Trigger:   source,
		StartedAt: r.now(),
	}
	log := func(msg string, keyvals ...interface{}) {
		logger.Debug(msg, append([]interface{}{"run_id", res.RunID, "trigger", source}, keyvals...)...)
	}

	snap, err := r.prepare(ctx)
	if err != nil {
		// nothing has been sent to the port; prior scheduled state is preserved
		res.Errors = append(res.Errors, err)
		res.Aborted = true
		logger.Warn("reconciliation aborted before applying changes", "run_id", res.RunID, "trigger", source, "error", err)
		return res
	}
	res.Unchanged = snap.diff.Unchanged
	log("reconciliation diff", "to_add", len(snap.diff.ToAdd), "to_remove", len(snap.diff.ToRemove), "unchanged", snap.diff.Unchanged)

	for _, id := range snap.diff.ToRemove {
		if err := ctx.Err(); err != nil {
			return r.interrupted(res, err)
		}
		if err := r.port.Cancel(ctx, id); err != nil {
			if ctx.Err() != nil {
				return r.interrupted(res, ctx.Err())
			}
			res.Errors = append(res.Errors, err)
			logger.Warn("cancel failed", "run_id", res.RunID, "id", id, "error", err)
			continue
		}
		res.Removed = append(res.Removed, id)
	}

	for _, n := range snap.diff.ToAdd {
		if res.PermissionDenied {
			break
		}
		if err := ctx.Err(); err != nil {
			return r.interrupted(res, err)
		}
		err := r.port.Schedule(ctx, n)
		switch {
		case err == nil:
			res.Added = append(res.Added, n.ID)
		case ctx.Err() != nil:
			return r.interrupted(res, ctx.Err())
		case errors.Is(err, apperrors.ErrPermissionDenied):
			res.PermissionDenied = true
			res.Errors = append(res.Errors, err)
			logger.Warn("notification permission denied; skipping remaining schedules", "run_id", res.RunID)
		default:
			// retried by the next run, which will still see the id missing
			res.Errors = append(res.Errors, err)
			logger.Warn("schedule failed", "run_id", res.RunID, "id", n.ID, "error", err)
		}
	}

	rec := models.ReconciliationRecord{
		LastRunAt:        snap.now,
		HorizonEnd:       r.engine.HorizonEnd(snap.now),
		RunID:            res.RunID,
		Trigger:          source,
		Added:            len(res.Added),
		Removed:          len(res.Removed),
		Failed:           len(res.Errors),
		PermissionDenied: res.PermissionDenied,
	}
	if err := r.records.Set(ctx, rec); err != nil {
		res.Errors = append(res.Errors, err)
		logger.Error("failed to persist reconciliation record", "run_id", res.RunID, "error", err)
	}

	logger.Info("reconciliation complete",
		"run_id", res.RunID,
		"trigger", source,
		"added", len(res.Added),
		"removed", len(res.Removed),
		"unchanged", res.Unchanged,
		"errors", len(res.Errors),
	)
	return res
}

// runExclusive performs one run while holding the cross-process lock. Waiting for
// the lock happens before any store read, so the run observes every edit committed
// while another process was reconciling.
func (r *Reconciler) runExclusive(ctx context.Context, source models.TriggerSource) models.ReconciliationResult {
	if err := r.lock.Lock(ctx); err != nil {
		res := models.ReconciliationResult{
			RunID:     uuid.NewString(),
			Trigger:   source,
			StartedAt: r.now(),
			Aborted:   true,
			Errors:    []error{fmt.Errorf("waiting for another reconciliation: %w", err)},
		}
		logger.Warn("reconciliation skipped; lock not acquired", "run_id", res.RunID, "trigger", source, "error", err)
		return res
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			logger.Warn("failed to release reconciliation lock", "error", err)
		}
	}()
	return r.Run(ctx, source)
}

// interrupted ends a run whose context expired between port calls. The record is
// left alone; the next run diffs against live port state and finishes the work.
func (r *Reconciler) interrupted(res models.ReconciliationResult, err error) models.ReconciliationResult {
	res.Aborted = true
	res.Errors = append(res.Errors, err)
	logger.Warn("reconciliation interrupted", "run_id", res.RunID, "trigger", res.Trigger,
		"added", len(res.Added), "removed", len(res.Removed), "error", err)
	return res
}

// LastRecord returns the record of the last completed run.
func (r *Reconciler) LastRecord(ctx context.Context) (models.ReconciliationRecord, error) {
	return r.records.Get(ctx)
}

func (r *Reconciler) HorizonDays() int {
	return r.engine.HorizonDays()
}
