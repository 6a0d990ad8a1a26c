// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"harvester-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrNegativeDelta = errors.New("score delta must not be negative")
)

// ScoreRepository is the score ledger. Scores only grow; every Increment is
// durable before it returns.
type ScoreRepository interface {
	// Get returns the score of userID, 0 if the user has none.
	Get(ctx context.Context, userID int64) (int64, error)
	// Increment adds delta to the user's score and returns the new total.
	Increment(ctx context.Context, userID int64, delta int64) (int64, error)
	// All returns every score in first-insertion order.
	All(ctx context.Context) ([]model.Score, error)
	Close() error
}
