package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultAccessTTL bounds how long a positive access decision is served from Redis
const DefaultAccessTTL = 10 * time.Minute

// RedisAccessCache remembers that a user has paid for a course. Only
// positive decisions are stored, so a new purchase is never masked.
type RedisAccessCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisAccessCache creates a new access cache
func NewRedisAccessCache(client redis.Cmdable, ttl time.Duration) *RedisAccessCache {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &RedisAccessCache{client: client, prefix: "access", ttl: ttl}
}

func (c *RedisAccessCache) key(userID, courseID uint) string {
	return fmt.Sprintf("%s:%d:%d", c.prefix, userID, courseID)
}

// Get reports a cached positive decision. A miss is false, nil.
func (c *RedisAccessCache) Get(ctx context.Context, userID, courseID uint) (bool, error) {
	val, err := c.client.Get(ctx, c.key(userID, courseID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("access cache get: %w", err)
	}
	return val == "1", nil
}

// SetPaid stores a positive decision
func (c *RedisAccessCache) SetPaid(ctx context.Context, userID, courseID uint) error {
	if err := c.client.Set(ctx, c.key(userID, courseID), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("access cache set: %w", err)
	}
	return nil
}
