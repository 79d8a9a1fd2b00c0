package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultLockTimeout = 5 * time.Second

// LockTimeoutError indicates a view stayed locked past the timeout.
type LockTimeoutError struct {
	ViewID  string
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("store: lock timeout on view %s after %s", e.ViewID, e.Timeout)
}

// lockManager hands out exclusive per-view locks so that read-modify-write
// cycles on one document never interleave.
type lockManager struct {
	mu      sync.Mutex
	held    map[string]struct{}
	timeout time.Duration
}

func newLockManager(timeout time.Duration) *lockManager {
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &lockManager{held: make(map[string]struct{}), timeout: timeout}
}

// acquire blocks until the view is free, the timeout expires or ctx ends.
func (lm *lockManager) acquire(ctx context.Context, id string) error {
	deadline := time.Now().Add(lm.timeout)
	for {
		if lm.tryAcquire(id) {
			return nil
		}
		if time.Now().After(deadline) {
			return &LockTimeoutError{ViewID: id, Timeout: lm.timeout}
		}
		timer := time.NewTimer(lm.backoff(deadline))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (lm *lockManager) tryAcquire(id string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if _, busy := lm.held[id]; busy {
		return false
	}
	lm.held[id] = struct{}{}
	return true
}

func (lm *lockManager) backoff(deadline time.Time) time.Duration {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	slice := remaining / 10
	if slice < 5*time.Millisecond {
		return 5 * time.Millisecond
	}
	if slice > 50*time.Millisecond {
		return 50 * time.Millisecond
	}
	return slice
}

func (lm *lockManager) release(id string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	delete(lm.held, id)
}
