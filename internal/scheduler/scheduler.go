// Package scheduler owns the deferred, cancellable checks the lifecycle
// needs: one delayed task per aggregate, keyed by ID, cancelled whenever a
// later status change makes the check moot.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Timers is a registry of pending delayed tasks. Scheduling a task for an
// ID that already has one replaces it.
type Timers struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

func New() *Timers {
	return &Timers{timers: make(map[uuid.UUID]*time.Timer)}
}

// Schedule runs fn after delay unless the task is cancelled first. fn runs
// on a timer goroutine; it must do its own state re-check.
func (t *Timers) Schedule(id uuid.UUID, delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.timers[id]; ok {
		existing.Stop()
	}
	t.timers[id] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
		fn()
	})
}

// Cancel stops the pending task for id, if any. Returns whether a task was
// pending.
func (t *Timers) Cancel(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, id)
	return true
}

// Stop cancels every pending task.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Pending returns the number of armed tasks.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
