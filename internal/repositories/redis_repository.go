package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")
	return client, nil
}

// NewRedisStore keeps every key under prefix. MSET and DEL are single commands, so
// bundle writes are atomic.
func NewRedisStore(client *redis.Client, prefix string) KeyValueStore {
	return &redisStore{client: client, prefix: prefix}
}

func (r *redisStore) Get(ctx context.Context, key string) (string, bool, error) {

	if err := validateKeys([]string{key}); err != nil {
		return "", false, err
	}

	val, err := r.client.Get(ctx, namespaced(r.prefix, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("failed to get key %s from redis: %w", key, err)
	}

	return val, true, nil
}

func (r *redisStore) Set(ctx context.Context, key, value string) error {

	if err := validateKeys([]string{key}); err != nil {
		return err
	}

	if err := r.client.Set(ctx, namespaced(r.prefix, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil
}

func (r *redisStore) Remove(ctx context.Context, key string) error {
	return r.MultiRemove(ctx, []string{key})
}

func (r *redisStore) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {

	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = namespaced(r.prefix, k)
	}

	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %d keys from redis: %w", len(keys), err)
	}

	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}

	return out, nil
}

func (r *redisStore) MultiSet(ctx context.Context, pairs map[string]string) error {

	if len(pairs) == 0 {
		return nil
	}

	keys := sortedKeys(pairs)
	if err := validateKeys(keys); err != nil {
		return err
	}

	args := make([]any, 0, len(pairs)*2)
	for _, k := range keys {
		args = append(args, namespaced(r.prefix, k), pairs[k])
	}

	if err := r.client.MSet(ctx, args...).Err(); err != nil {
		return fmt.Errorf("failed to set %d keys in redis: %w", len(pairs), err)
	}

	return nil
}

func (r *redisStore) MultiRemove(ctx context.Context, keys []string) error {

	if len(keys) == 0 {
		return nil
	}

	if err := validateKeys(keys); err != nil {
		return err
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = namespaced(r.prefix, k)
	}

	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete %d keys from redis: %w", len(keys), err)
	}

	return nil
}
