package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"harvester-bot/internal/model"
)

// PostgresScoreRepository stores scores in the scores table. The seq column keeps
// first-insertion order for stable leaderboard ties.
type PostgresScoreRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScoreRepository creates a new PostgresScoreRepository instance.
func NewPostgresScoreRepository(pool *pgxpool.Pool) *PostgresScoreRepository {
	return &PostgresScoreRepository{pool: pool}
}

// Get returns the user's score.
func (r *PostgresScoreRepository) Get(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT points FROM scores WHERE user_id = $1`

	var points int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return points, nil
}

// Increment upserts the user's row and returns the new total.
func (r *PostgresScoreRepository) Increment(ctx context.Context, userID int64, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}

	const query = `
		INSERT INTO scores (user_id, points)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET points = scores.points + EXCLUDED.points, updated_at = NOW()
		RETURNING points
	`

	var total int64
	if err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to increment score: %w", err)
	}
	return total, nil
}

// All returns every score in first-insertion order.
func (r *PostgresScoreRepository) All(ctx context.Context) ([]model.Score, error) {
	const query = `SELECT user_id, points FROM scores ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []model.Score
	for rows.Next() {
		var s model.Score
		if err := rows.Scan(&s.UserID, &s.Points); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *PostgresScoreRepository) Close() error {
	return nil
}
