package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"harvester-bot/internal/config"
	"harvester-bot/internal/pkg/db"
	"harvester-bot/internal/repository"
)

// openScores opens the score store selected by storage.driver. The returned
// close function releases every connection it opened.
func openScores(ctx context.Context, cfg *config.Config) (repository.ScoreRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		repo := repository.NewRedisScoreRepository(rdb, cfg.Storage.Redis.KeyPrefix)
		log.Info().Str("addr", cfg.Storage.Redis.Addr).Msg("Using redis score store")
		return repo, func() { closeRepo(repo) }, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		log.Info().Str("host", cfg.Database.Host).Msg("Using postgres score store")
		return repository.NewPostgresScoreRepository(pool.Pool), pool.Close, nil

	default:
		repo, err := repository.NewFileScoreRepository(cfg.Storage.File)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Storage.File).Msg("Using file score store")
		return repo, func() { closeRepo(repo) }, nil
	}
}

func closeRepo(repo repository.ScoreRepository) {
	if err := repo.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close score store")
	}
}
