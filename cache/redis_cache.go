package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTombstoneTTL bounds how long an invalidated key refuses new fills.
const DefaultTombstoneTTL = 5 * time.Second

type RedisCache struct {
	Cli          *redis.Client
	TTL          time.Duration
	TombstoneTTL time.Duration
}

func New(addr string, db int, ttlSeconds int) *RedisCache {
	return &RedisCache{
		Cli:          redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		TTL:          time.Duration(ttlSeconds) * time.Second,
		TombstoneTTL: DefaultTombstoneTTL,
	}
}

// PostKey is the cache key of a single post.
func PostKey(id int) string { return "post:" + strconv.Itoa(id) }

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.Cli.Ping(ctx).Err()
}

// Get returns "" for an invalidated key.
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return r.Cli.Get(ctx, key).Result()
}

// SetNX stores val only if key holds neither a value nor a tombstone.
func (r *RedisCache) SetNX(ctx context.Context, key string, val string) (bool, error) {
	return r.Cli.SetNX(ctx, key, val, r.TTL).Result()
}

// Invalidate replaces key with an empty tombstone, so a fill that read the
// store before the change can't write its stale copy back.
func (r *RedisCache) Invalidate(ctx context.Context, key string) error {
	return r.Cli.Set(ctx, key, "", r.TombstoneTTL).Err()
}

func (r *RedisCache) Close() error {
	return r.Cli.Close()
}
