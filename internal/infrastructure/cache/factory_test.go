package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilelens/backend/config"
	"github.com/tilelens/backend/internal/domain"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := New(ctx, config.CacheConfig{Type: "memory"})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &MemoryCache{}, store)
	})

	t.Run("bolt", func(t *testing.T) {
		store, err := New(ctx, config.CacheConfig{Type: "bolt", BoltPath: filepath.Join(t.TempDir(), "s.db")})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &BoltCache{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(ctx, config.CacheConfig{Type: "memcached"})
		assert.Error(t, err)
	})

	t.Run("redis with bad URL", func(t *testing.T) {
		_, err := New(ctx, config.CacheConfig{Type: "redis", RedisURL: "not a url"})
		assert.Error(t, err)
	})
}

// TestRedisCache runs against a live server when TILELENS_TEST_REDIS_URL is set
func TestRedisCache(t *testing.T) {
	redisURL := os.Getenv("TILELENS_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TILELENS_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, redisURL, "tilelens-test:")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
