package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RedisRepositories struct {
	Client *redis.Client
}

type IRedisRepositories interface {
	Set(key string, data []byte, expiredTime time.Duration, ctx context.Context) error
	Exists(key string, ctx context.Context) (bool, error)
}

func NewRedisRepositories(client *redis.Client) *RedisRepositories {
	log.Info().Msg("initialized repository: redis")
	return &RedisRepositories{
		Client: client,
	}
}

func (r *RedisRepositories) Set(key string, data []byte, expiredTime time.Duration, ctx context.Context) error {
	return r.Client.Set(ctx, key, data, expiredTime).Err()
}

func (r *RedisRepositories) Exists(key string, ctx context.Context) (bool, error) {
	n, err := r.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping reports whether the server is reachable.
func (r *RedisRepositories) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
