package cache_test

import (
	"testing"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/cache"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.BranchesKeyPrefix, "all")

	t.Run("Round trip", func(t *testing.T) {
		// Arrange
		lru := cache.NewLRUCache(&config.CacheConfig{DefaultTTL: time.Minute, Size: 8})
		require.NoError(t, lru.Set(ctx, key, branches, 0))

		// Act
		var got []models.Branch
		found, err := lru.Get(ctx, key, &got)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, branches, got)
	})

	t.Run("Per entry TTL", func(t *testing.T) {
		lru := cache.NewLRUCache(&config.CacheConfig{DefaultTTL: time.Minute, Size: 8})
		require.NoError(t, lru.Set(ctx, key, branches, time.Nanosecond))
		time.Sleep(time.Millisecond)

		var got []models.Branch
		found, err := lru.Get(ctx, key, &got)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Size bound evicts oldest", func(t *testing.T) {
		lru := cache.NewLRUCache(&config.CacheConfig{Size: 1})
		require.NoError(t, lru.Set(ctx, "a", 1, 0))
		require.NoError(t, lru.Set(ctx, "b", 2, 0))

		var v int
		found, _ := lru.Get(ctx, "a", &v)
		assert.False(t, found)

		found, _ = lru.Get(ctx, "b", &v)
		assert.True(t, found)
		assert.Equal(t, 2, v)
	})

	t.Run("Delete and Close", func(t *testing.T) {
		lru := cache.NewLRUCache(&config.CacheConfig{Size: 4})
		require.NoError(t, lru.Set(ctx, key, branches, 0))
		require.NoError(t, lru.Delete(ctx, key))

		var got []models.Branch
		found, _ := lru.Get(ctx, key, &got)
		assert.False(t, found)
		assert.NoError(t, lru.Close())
	})
}
