package repositories

import (
	"context"
	"testing"
	"time"
)

type memoryRedis struct {
	keys map[string]time.Duration
}

func (m *memoryRedis) Set(key string, data []byte, expiredTime time.Duration, ctx context.Context) error {
	m.keys[key] = expiredTime
	return nil
}

func (m *memoryRedis) Exists(key string, ctx context.Context) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

func TestTokenRepository(t *testing.T) {
	store := &memoryRedis{keys: map[string]time.Duration{}}
	repo := NewTokenRepository(store)
	ctx := context.Background()

	if err := repo.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ttl := store.keys[revokedTokenPrefix+"jti-1"]; ttl != time.Hour {
		t.Errorf("ttl = %s", ttl)
	}
	if revoked, err := repo.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Errorf("IsRevoked(jti-1) = %v, %v", revoked, err)
	}

	if err := repo.Revoke(ctx, "jti-2", 0); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}
	if revoked, _ := repo.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("already expired token was stored")
	}
}
