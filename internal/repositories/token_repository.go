package repositories

import (
	"context"
	"pbm-portal/pkg/redis"
	"time"
)

const revokedTokenPrefix = "revoked_token:"

// TokenRepository keeps the ids of logged out tokens until they expire.
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenRepository struct {
	redisRepo redis.IRedisRepositories
}

func NewTokenRepository(redisRepo redis.IRedisRepositories) TokenRepository {
	return &tokenRepository{redisRepo: redisRepo}
}

func (r *tokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.redisRepo.Set(revokedTokenPrefix+tokenID, []byte("1"), ttl, ctx)
}

func (r *tokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.redisRepo.Exists(revokedTokenPrefix+tokenID, ctx)
}
