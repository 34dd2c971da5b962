package storage

import (
	"context"
	"sort"
	"sync"
)

// Listener is invoked after a write has durably committed.
type Listener func(ctx context.Context)

type subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]Listener
}

// add registers fn and returns a function that removes it.
func (s *subscribers) add(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

// notify calls every listener in registration order, outside the lock.
func (s *subscribers) notify(ctx context.Context) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
