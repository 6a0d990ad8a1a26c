package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"harvester-bot/internal/model"
)

// RedisScoreRepository stores scores in a hash and remembers first-insertion
// order in a sorted set scored by the time of the first increment.
type RedisScoreRepository struct {
	rdb      redis.UniversalClient
	scoreKey string
	orderKey string
	now      func() time.Time
}

// NewRedisScoreRepository creates a repository under keyPrefix, e.g. "harvester:".
func NewRedisScoreRepository(rdb redis.UniversalClient, keyPrefix string) *RedisScoreRepository {
	return &RedisScoreRepository{
		rdb:      rdb,
		scoreKey: keyPrefix + "scores",
		orderKey: keyPrefix + "scores:order",
		now:      time.Now,
	}
}

// Get returns the user's score.
func (r *RedisScoreRepository) Get(ctx context.Context, userID int64) (int64, error) {
	v, err := r.rdb.HGet(ctx, r.scoreKey, strconv.FormatInt(userID, 10)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return v, nil
}

// Increment adds delta in a MULTI/EXEC block together with the order bookkeeping.
func (r *RedisScoreRepository) Increment(ctx context.Context, userID int64, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}

	member := strconv.FormatInt(userID, 10)
	var total *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.HIncrBy(ctx, r.scoreKey, member, delta)
		pipe.ZAddNX(ctx, r.orderKey, redis.Z{Score: float64(r.now().UnixMicro()), Member: member})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment score: %w", err)
	}
	return total.Val(), nil
}

// All returns every score in first-insertion order.
func (r *RedisScoreRepository) All(ctx context.Context) ([]model.Score, error) {
	members, err := r.rdb.ZRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list score order: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	values, err := r.rdb.HMGet(ctx, r.scoreKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}

	out := make([]model.Score, 0, len(members))
	for i, m := range members {
		userID, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		points, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, model.Score{UserID: userID, Points: points})
	}
	return out, nil
}

// Close closes the client.
func (r *RedisScoreRepository) Close() error {
	return r.rdb.Close()
}
