package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client    *redis.Client
	cfg       *config.CacheConfig
	namespace string
}

// NewRedisCache shares the storage redis instance; namespace keeps cache keys apart
// from session keys.
func NewRedisCache(client *redis.Client, cfg *config.CacheConfig, namespace string) Cache {
	return &redisCache{
		client:    client,
		cfg:       cfg,
		namespace: namespace,
	}
}

func (r *redisCache) fullKey(key string) string {
	if r.namespace == "" {
		return key
	}

	return Key(r.namespace+":cache", key)
}

func (r *redisCache) Get(ctx context.Context, key string, value any) (bool, error) {

	data, err := r.client.Get(ctx, r.fullKey(key)).Bytes()
	if err != nil {

		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get key %s from redis: %w", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}

	if err := r.client.Set(ctx, r.fullKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {

	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s from redis: %w", key, err)
	}

	return nil
}

// Close is a no-op: the client belongs to the storage layer.
func (r *redisCache) Close() error {
	return nil
}
