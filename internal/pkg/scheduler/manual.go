package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance. It keeps every task it
// has ever scheduled so tests can force-run a task after it was cancelled.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*ManualTask
}

// ManualTask is a task scheduled on a Manual scheduler.
type ManualTask struct {
	owner     *Manual
	due       time.Duration
	seq       int
	delay     time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After records fn to run when virtual time reaches now+d.
func (m *Manual) After(d time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &ManualTask{owner: m, due: m.now + d, seq: m.seq, delay: d, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves virtual time forward by d, running due tasks in due order.
// Tasks scheduled by running tasks are run too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		next.fired = true
		m.mu.Unlock()
		next.fn()
	}
}

func (m *Manual) nextDueLocked(limit time.Duration) *ManualTask {
	var due []*ManualTask
	for _, t := range m.tasks {
		if !t.fired && !t.cancelled && t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due == due[j].due {
			return due[i].seq < due[j].seq
		}
		return due[i].due < due[j].due
	})
	return due[0]
}

// Pending returns the tasks that have neither fired nor been cancelled.
func (m *Manual) Pending() []*ManualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ManualTask
	for _, t := range m.tasks {
		if !t.fired && !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

// Last returns the most recently scheduled task, or nil.
func (m *Manual) Last() *ManualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil
	}
	return m.tasks[len(m.tasks)-1]
}

// Cancel implements Task.
func (t *ManualTask) Cancel() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// Delay is the delay the task was scheduled with.
func (t *ManualTask) Delay() time.Duration {
	return t.delay
}

// Cancelled reports whether Cancel stopped the task.
func (t *ManualTask) Cancelled() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.cancelled
}

// Run invokes the callback regardless of its state, simulating a timer that
// fires after logical cancellation.
func (t *ManualTask) Run() {
	t.owner.mu.Lock()
	t.fired = true
	t.owner.mu.Unlock()
	t.fn()
}
