// Package idempotency caches committed transfer results in Redis so a
// replayed request reference returns the recorded outcome instead of moving
// money twice. The durable guard stays in the transaction log's unique
// request_reference column; this cache is the fast path and in-flight lock.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ha7san14/dev-bank-v2/internal/usecase/services"
)

const (
	// CacheTTL defines how long committed results are replayable.
	CacheTTL = 24 * time.Hour

	// LockTimeout prevents indefinite locks if a request crashes mid-transfer.
	LockTimeout = 10 * time.Second

	cacheKeyPrefix = "idempotency:"
	lockKeyPrefix  = "lock:"
)

type RedisCache struct {
	client *redis.Client
}

var _ services.IdempotencyCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetResult returns the cached result payload for the reference, or nil when
// nothing has been recorded yet.
func (c *RedisCache) GetResult(ctx context.Context, reference string) ([]byte, error) {
	payload, err := c.client.Get(ctx, cacheKeyPrefix+reference).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency cache entry: %w", err)
	}
	return payload, nil
}

// AcquireLock takes the per-reference in-flight lock. False means another
// request with the same reference is still being processed.
func (c *RedisCache) AcquireLock(ctx context.Context, reference string) (bool, error) {
	acquired, err := c.client.SetNX(ctx, lockKeyPrefix+reference, 1, LockTimeout).Result()
	if err != nil {
		return false, fmt.Errorf("acquire idempotency lock: %w", err)
	}
	return acquired, nil
}

func (c *RedisCache) ReleaseLock(ctx context.Context, reference string) error {
	if err := c.client.Del(ctx, lockKeyPrefix+reference).Err(); err != nil {
		return fmt.Errorf("release idempotency lock: %w", err)
	}
	return nil
}

func (c *RedisCache) StoreResult(ctx context.Context, reference string, payload []byte) error {
	if err := c.client.Set(ctx, cacheKeyPrefix+reference, payload, CacheTTL).Err(); err != nil {
		return fmt.Errorf("store idempotency cache entry: %w", err)
	}
	return nil
}
