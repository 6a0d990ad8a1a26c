// Package gametest provides in-memory fakes for engine tests.
package gametest

import (
	"context"
	"errors"
	"sync"

	"harvester-bot/internal/game"
)

// ErrLedgerDown is returned by a Ledger with Fail set.
var ErrLedgerDown = errors.New("ledger unavailable")

// Ledger is an in-memory game.ScoreLedger that records every increment.
type Ledger struct {
	mu     sync.Mutex
	scores map[int64]int64
	calls  []Increment
	bound  []bool
	Fail   bool
}

// Increment is a recorded ledger call.
type Increment struct {
	UserID int64
	Delta  int64
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{scores: make(map[int64]int64)}
}

// Increment implements game.ScoreLedger.
func (l *Ledger) Increment(ctx context.Context, userID int64, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	l.calls = append(l.calls, Increment{UserID: userID, Delta: delta})
	l.bound = append(l.bound, hasDeadline)
	if l.Fail {
		return 0, ErrLedgerDown
	}
	l.scores[userID] += delta
	return l.scores[userID], nil
}

// Score returns the accumulated score for userID.
func (l *Ledger) Score(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scores[userID]
}

// Calls returns a copy of the recorded increments.
func (l *Ledger) Calls() []Increment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Increment(nil), l.calls...)
}

// Deadlines reports, per recorded increment, whether its context had a deadline.
func (l *Ledger) Deadlines() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.bound...)
}

// Notifier records announcements.
type Notifier struct {
	mu       sync.Mutex
	messages []game.Message
}

// Announce implements game.Notifier.
func (n *Notifier) Announce(_ context.Context, msg game.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

// Messages returns a copy of everything announced so far.
func (n *Notifier) Messages() []game.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]game.Message(nil), n.messages...)
}

// Texts returns the text of every announcement.
func (n *Notifier) Texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Text
	}
	return out
}

// Last returns the most recent announcement.
func (n *Notifier) Last() (game.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return game.Message{}, false
	}
	return n.messages[len(n.messages)-1], true
}

// Reset clears recorded announcements.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = nil
}

// Rand replays a fixed sequence of values, each reduced modulo n. It is safe for
// concurrent use.
type Rand struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewRand creates a Rand that cycles through values.
func NewRand(values ...int) *Rand {
	if len(values) == 0 {
		values = []int{0}
	}
	return &Rand{values: values}
}

// IntN implements game.Rand.
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.next%len(r.values)]
	r.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
