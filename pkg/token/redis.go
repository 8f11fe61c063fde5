package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBlacklistPrefix namespaces revoked token IDs in Redis.
const redisBlacklistPrefix = "bl:"

// RedisBlacklist is a Redis-backed Blacklist shared across service instances.
// Redis key expiry garbage-collects entries once the token would be rejected
// as expired anyway.
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist creates a Redis-backed blacklist.
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

// Revoke records the jti with the given TTL.
func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, redisBlacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the jti is present in the blacklist.
func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, redisBlacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}
