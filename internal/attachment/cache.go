package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "chatclone:extract:"

// Cache stores raw extracted text keyed by payload hash.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// CacheKey hashes the attachment name, declared MIME type and payload. The
// name is part of the key because the cached value is the rendered block.
func CacheKey(name, mime, payload string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + mime + "\x00" + payload))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is an in-process Cache with expiry.
type MemoryCache struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an in-process cache; entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryCache{store: cache.New(ttl, ttl/2), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", false, nil
	}
	text, ok := v.(string)
	return text, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, text string) error {
	c.store.Set(key, text, c.ttl)
	return nil
}

// RedisCache shares extracted text between service instances.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := c.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, text string) error {
	return c.rdb.Set(ctx, redisKeyPrefix+key, text, c.ttl).Err()
}

// Ping checks the redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the redis client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
