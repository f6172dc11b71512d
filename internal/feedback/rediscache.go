package feedback

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long cached multipliers outlive their last
// sync. Expired entries fall back to the neutral 1.0 on read.
const DefaultCacheTTL = 24 * time.Hour

// RedisMultiplierCache implements MultiplierCache on Redis hashes, one
// hash per user keyed by factor. It also serves reads for processes
// that do not hold the ledger in memory.
type RedisMultiplierCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMultiplierCache creates a Redis-backed multiplier cache.
// A non-positive ttl selects DefaultCacheTTL.
func NewRedisMultiplierCache(client *redis.Client, ttl time.Duration) *RedisMultiplierCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisMultiplierCache{
		client: client,
		ttl:    ttl,
	}
}

func multiplierKey(userID string) string {
	return "feedback:multipliers:" + userID
}

// SetMultipliers replaces the cached multipliers for a user.
func (c *RedisMultiplierCache) SetMultipliers(ctx context.Context, userID string, multipliers map[string]float64) error {
	key := multiplierKey(userID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(multipliers) > 0 {
		fields := make(map[string]interface{}, len(multipliers))
		for factor, m := range multipliers {
			fields[factor] = m
		}
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache multipliers for user %s: %w", userID, err)
	}
	return nil
}

// GetMultipliers returns the cached multipliers for a user, keyed by
// factor. A missing key returns an empty map.
func (c *RedisMultiplierCache) GetMultipliers(ctx context.Context, userID string) (map[string]float64, error) {
	values, err := c.client.HGetAll(ctx, multiplierKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached multipliers for user %s: %w", userID, err)
	}

	multipliers := make(map[string]float64, len(values))
	for factor, raw := range values {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		multipliers[factor] = m
	}
	return multipliers, nil
}
