package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruEntry struct {
	data      []byte
	expiresAt time.Time
}

// lruCache is the in-process cache used when redis is not configured. Entries are
// bounded by cfg.Size and expire after cfg.DefaultTTL or the per-call ttl.
type lruCache struct {
	entries *expirable.LRU[string, lruEntry]
	cfg     *config.CacheConfig
	now     func() time.Time
}

func NewLRUCache(cfg *config.CacheConfig) Cache {
	size := cfg.Size
	if size <= 0 {
		size = 256
	}

	return &lruCache{
		entries: expirable.NewLRU[string, lruEntry](size, nil, cfg.DefaultTTL),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (l *lruCache) Get(_ context.Context, key string, value any) (bool, error) {

	entry, ok := l.entries.Get(key)
	if !ok {
		return false, nil
	}

	if !entry.expiresAt.IsZero() && l.now().After(entry.expiresAt) {
		l.entries.Remove(key)
		return false, nil
	}

	if err := json.Unmarshal(entry.data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (l *lruCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	entry := lruEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = l.now().Add(ttl)
	}

	l.entries.Add(key, entry)

	return nil
}

func (l *lruCache) Delete(_ context.Context, key string) error {
	l.entries.Remove(key)
	return nil
}

func (l *lruCache) Close() error {
	l.entries.Purge()
	return nil
}
