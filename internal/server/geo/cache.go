package geo

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved labels keyed by normalized IP.
type Cache interface {
	Get(ctx context.Context, ip string) (string, bool, error)
	Set(ctx context.Context, ip, label string, ttl time.Duration) error
}

// MemoryCache is a per-process cache.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *MemoryCache) Get(_ context.Context, ip string) (string, bool, error) {
	v, ok := m.c.Get(ip)
	if !ok {
		return "", false, nil
	}
	label, ok := v.(string)
	return label, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, ip, label string, ttl time.Duration) error {
	m.c.Set(ip, label, ttl)
	return nil
}

const redisKeyPrefix = "geo:"

// RedisCache shares resolved labels between server replicas.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, ip string) (string, bool, error) {
	label, err := r.client.Get(ctx, redisKeyPrefix+ip).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return label, true, nil
}

func (r *RedisCache) Set(ctx context.Context, ip, label string, ttl time.Duration) error {
	return r.client.Set(ctx, redisKeyPrefix+ip, label, ttl).Err()
}
