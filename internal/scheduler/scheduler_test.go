package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSchedule_Fires(t *testing.T) {
	timers := New()
	defer timers.Stop()

	fired := make(chan struct{})
	timers.Schedule(uuid.New(), 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never fired")
	}
	if timers.Pending() != 0 {
		t.Errorf("pending = %d after firing, want 0", timers.Pending())
	}
}

func TestCancel_SuppressesTask(t *testing.T) {
	timers := New()
	defer timers.Stop()

	var fired atomic.Bool
	id := uuid.New()
	timers.Schedule(id, 50*time.Millisecond, func() { fired.Store(true) })

	if !timers.Cancel(id) {
		t.Fatal("expected a pending task to cancel")
	}
	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled task fired anyway")
	}
	if timers.Cancel(id) {
		t.Error("second cancel should report no pending task")
	}
}

func TestSchedule_ReplacesExisting(t *testing.T) {
	timers := New()
	defer timers.Stop()

	var first, second atomic.Bool
	id := uuid.New()
	timers.Schedule(id, 50*time.Millisecond, func() { first.Store(true) })
	timers.Schedule(id, 10*time.Millisecond, func() { second.Store(true) })

	time.Sleep(150 * time.Millisecond)
	if first.Load() {
		t.Error("replaced task fired")
	}
	if !second.Load() {
		t.Error("replacement task never fired")
	}
}

func TestStop_CancelsAll(t *testing.T) {
	timers := New()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		timers.Schedule(uuid.New(), 50*time.Millisecond, func() { fired.Add(1) })
	}
	timers.Stop()

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("%d tasks fired after Stop", fired.Load())
	}
}
