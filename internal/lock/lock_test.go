package lock

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLockExcludesOtherHolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.lock")
	a, b := New(path), New(path)

	if err := a.Lock(context.Background()); err != nil {
		t.Fatalf("a.Lock() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := b.Lock(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("b.Lock() while held = %v, want deadline exceeded", err)
	}

	if err := a.Unlock(); err != nil {
		t.Fatalf("a.Unlock() error = %v", err)
	}
	if err := b.Lock(context.Background()); err != nil {
		t.Fatalf("b.Lock() after release error = %v", err)
	}
	if err := b.Unlock(); err != nil {
		t.Fatalf("b.Unlock() error = %v", err)
	}
}

func TestLockWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	a, b := New(path), New(path)
	if err := a.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}

	acquired := make(chan error, 1)
	go func() { acquired <- b.Lock(context.Background()) }()

	select {
	case err := <-acquired:
		t.Fatalf("b acquired a held lock: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := a.Unlock(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("b.Lock() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("b never acquired the released lock")
	}
	_ = b.Unlock()
}

func TestLockSerializesGoroutines(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "run.lock"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Lock(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			if err := l.Unlock(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("%d goroutines held the lock at once", maxSeen)
	}
}
