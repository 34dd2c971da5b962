package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/models"
)

// MemoryPort is an in-process notification service. It backs tests and the
// "memory" port kind.
type MemoryPort struct {
	mu         sync.Mutex
	pending    map[string]models.PendingNotification
	permission Permission
	// grantOnRequest controls what RequestPermission does from not_determined.
	grantOnRequest bool

	failSchedule map[string]error
	failList     error
	hook         func(op, id string)

	scheduled []string
	cancelled []string
	lists     int
}

func NewMemoryPort() *MemoryPort {
	return &MemoryPort{
		pending:        map[string]models.PendingNotification{},
		permission:     PermissionGranted,
		grantOnRequest: true,
		failSchedule:   map[string]error{},
	}
}

// SetPermission forces the authorization state.
func (m *MemoryPort) SetPermission(p Permission, grantOnRequest bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = p
	m.grantOnRequest = grantOnRequest
}

// FailSchedule makes Schedule(id) fail with err until cleared with a nil err.
func (m *MemoryPort) FailSchedule(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failSchedule, id)
		return
	}
	m.failSchedule[id] = err
}

// FailList makes ListPending fail with err; nil clears it.
func (m *MemoryPort) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failList = err
}

// SetHook installs fn to run before every Schedule, Cancel and ListPending call,
// outside the port's lock. Tests use it to block or interrupt a run.
func (m *MemoryPort) SetHook(fn func(op, id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Put inserts a pending entry directly, e.g. another app's notification.
func (m *MemoryPort) Put(p models.PendingNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[p.ID] = p
}

func (m *MemoryPort) RequestPermission(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permission == PermissionNotDetermined {
		if m.grantOnRequest {
			m.permission = PermissionGranted
		} else {
			m.permission = PermissionDenied
		}
	}
	return m.permission == PermissionGranted, nil
}

func (m *MemoryPort) PermissionStatus(context.Context) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission, nil
}

func (m *MemoryPort) Schedule(ctx context.Context, n models.ScheduledNotification) error {
	m.runHook("schedule", n.ID)
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permission != PermissionGranted {
		return &apperrors.NotificationError{ID: n.ID, Op: "schedule", Err: apperrors.ErrPermissionDenied}
	}
	if err, ok := m.failSchedule[n.ID]; ok {
		return &apperrors.NotificationError{ID: n.ID, Op: "schedule", Err: fmt.Errorf("%w: %v", apperrors.ErrSchedulingFailed, err)}
	}
	m.pending[n.ID] = models.PendingNotification{ID: n.ID, FiresAt: n.FiresAt, Type: string(n.Type)}
	m.scheduled = append(m.scheduled, n.ID)
	return nil
}

func (m *MemoryPort) Cancel(ctx context.Context, id string) error {
	m.runHook("cancel", id)
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	m.cancelled = append(m.cancelled, id)
	return nil
}

func (m *MemoryPort) ListPending(ctx context.Context) ([]models.PendingNotification, error) {
	m.runHook("list", "")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.failList != nil {
		return nil, m.failList
	}
	out := make([]models.PendingNotification, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Pending returns the ids currently held, sorted.
func (m *MemoryPort) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Calls returns the ids passed to successful Schedule and Cancel calls, in order.
func (m *MemoryPort) Calls() (scheduled, cancelled []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.scheduled...), append([]string(nil), m.cancelled...)
}

// ListCalls counts ListPending invocations, one per reconciliation run.
func (m *MemoryPort) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

// ResetCalls clears the call log.
func (m *MemoryPort) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled, m.cancelled, m.lists = nil, nil, 0
}

func (m *MemoryPort) runHook(op, id string) {
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		hook(op, id)
	}
}
