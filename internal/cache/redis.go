package cache

import (
	"context"
	"time"

	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings the configured server.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	logger.ExternalServiceCall("redis", "ping", "addr", cfg.Addr)
	err := rdb.Ping(ctx).Err()
	logger.ExternalServiceResult("redis", "ping", err)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
