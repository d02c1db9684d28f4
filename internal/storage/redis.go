package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache remembers which canonical URLs were mirrored recently,
// letting repeated runs against the same site skip unchanged
// downloads. The cache is optional; without it every run fetches
// everything.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the given Redis address.
func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisCache{client: rdb}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// key hashes the URL so arbitrary canonical URLs make safe Redis keys.
func (c *RedisCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("mirrored:%s", hex.EncodeToString(sum[:]))
}

// MarkMirrored records a successfully written URL with a TTL.
func (c *RedisCache) MarkMirrored(ctx context.Context, url string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(url), "1", ttl).Err()
}

// IsRecentlyMirrored checks whether the URL was written within the TTL
// of a previous run.
func (c *RedisCache) IsRecentlyMirrored(ctx context.Context, url string) (bool, error) {
	val, err := c.client.Exists(ctx, c.key(url)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
