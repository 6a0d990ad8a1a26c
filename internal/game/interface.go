// Package game defines the contracts shared by the trivia, roll and duel engines.
package game

import (
	"context"
	"errors"
	"time"
)

// Errors returned by engines for expected user-facing conditions. The coordinator
// renders them as short ephemeral replies.
var (
	ErrAlreadyActive       = errors.New("session already active")
	ErrRoundNotActive      = errors.New("round not active")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrNotPermitted        = errors.New("not permitted")
)

// Message is an outbound announcement produced by an engine.
type Message struct {
	Text string
	// TTL > 0 schedules deletion of the sent message after TTL.
	TTL time.Duration
	// Markdown selects Markdown parse mode.
	Markdown bool
}

// Notifier delivers engine announcements to the shared chat. Implementations log
// and swallow delivery failures.
type Notifier interface {
	Announce(ctx context.Context, msg Message)
}

// ScoreLedger is the slice of the score store the engines need.
type ScoreLedger interface {
	Increment(ctx context.Context, userID int64, delta int64) (int64, error)
}

// LedgerTimeout bounds a single score write.
const LedgerTimeout = 10 * time.Second

// Credit adds delta to userID's score under LedgerTimeout.
func Credit(ctx context.Context, ledger ScoreLedger, userID, delta int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, LedgerTimeout)
	defer cancel()
	return ledger.Increment(ctx, userID, delta)
}

// Rand is the random source engines draw from. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message)

// Announce calls f(ctx, msg).
func (f NotifierFunc) Announce(ctx context.Context, msg Message) {
	f(ctx, msg)
}
