// Package scheduler runs one-shot delayed callbacks.
//
// Cancellation is advisory: a callback may still run after Cancel if the timer
// already fired. Callers guard their callbacks with a generation check.
package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is a handle to a scheduled callback.
type Task interface {
	// Cancel stops the task. It reports whether the call prevented the callback from running.
	Cancel() bool
}

// Scheduler schedules fn to run once after d.
type Scheduler interface {
	After(d time.Duration, fn func()) Task
}

// Timer is the production Scheduler backed by time.AfterFunc.
type Timer struct {
	mu      sync.Mutex
	pending map[*timerTask]struct{}
	stopped bool
}

// NewTimer creates a new Timer scheduler.
func NewTimer() *Timer {
	return &Timer{pending: make(map[*timerTask]struct{})}
}

type timerTask struct {
	owner *Timer
	timer *time.Timer
}

// After schedules fn on its own goroutine after d. Panics in fn are recovered and logged.
// After Stop, new tasks are accepted but never run.
func (s *Timer) After(d time.Duration, fn func()) Task {
	t := &timerTask{owner: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return t
	}
	s.pending[t] = struct{}{}
	t.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Scheduled task panicked")
			}
		}()
		fn()
	})
	return t
}

// Pending returns the number of tasks that have not fired or been cancelled.
func (s *Timer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending task. Used on shutdown.
func (s *Timer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.pending {
		t.timer.Stop()
		delete(s.pending, t)
	}
}

func (t *timerTask) Cancel() bool {
	if t.timer == nil {
		return false
	}
	t.owner.mu.Lock()
	delete(t.owner.pending, t)
	t.owner.mu.Unlock()
	return t.timer.Stop()
}
