package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/escrow-api/internal/core"
)

const claimPrefix = "escrow:claim:"

// RedisIdempotencyStore implements core.IdempotencyStore with SET NX claims.
// A claim only guards against concurrent duplicates; durable idempotency
// comes from the ledger's unique keys and the processor's own key handling.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
}

// NewRedisIdempotencyStore creates a store on client.
func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

var _ core.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// Claim takes key for ttl. It reports false when someone else holds it.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}
	ok, err := s.client.SetNX(ctx, claimPrefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release drops the claim on key. Releasing an expired claim is not an error.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Del(ctx, claimPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
