package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar/apps/comments/internal/cache"
	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
)

func newMemory(t *testing.T) *cache.MemoryCache {
	t.Helper()
	config := cache.DefaultCacheConfig()
	c := cache.NewMemoryCache(config)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.Set(ctx, "comments:comment:1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "comments:comment:2", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "other:1", []byte("c"), time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "comments:comment:*"))

	_, err := c.Get(ctx, "comments:comment:1")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
	_, err = c.Get(ctx, "comments:comment:2")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)

	value, err := c.Get(ctx, "other:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), value)
}

func TestMemoryCache_EvictsOverLimit(t *testing.T) {
	ctx := context.Background()
	config := cache.DefaultCacheConfig()
	config.MaxMemory = 200
	c := cache.NewMemoryCache(config)
	defer c.Close()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Set(ctx, key, make([]byte, 40), time.Minute))
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.MemoryUsage, int64(200))
	assert.Greater(t, stats.Evictions, int64(0))

	_, err := c.Get(ctx, "d")
	assert.NoError(t, err, "most recent write must survive eviction")
}

func TestMemoryCache_Closed(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), cache.ErrCacheDisabled)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheDisabled)
	assert.ErrorIs(t, c.Ping(ctx), cache.ErrCacheDisabled)
}

func TestNewCache_InvalidType(t *testing.T) {
	config := cache.DefaultCacheConfig()
	config.Backend = cache.CacheType("invalid")

	_, err := cache.NewCache(config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cache.ErrInvalidCacheType))
}

type payload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestGenericCacheService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	config := cache.DefaultCacheConfig()
	svc := cache.NewGenericCacheService(newMemory(t), config)

	require.NoError(t, svc.CacheData(ctx, "comment:1", payload{ID: "1", Count: 3}))

	var got payload
	require.NoError(t, svc.GetCached(ctx, "comment:1", &got))
	assert.Equal(t, payload{ID: "1", Count: 3}, got)

	require.NoError(t, svc.InvalidateKey(ctx, "comment:1"))
	err := svc.GetCached(ctx, "comment:1", &got)
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestGenericCacheService_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	svc := cache.NewGenericCacheService(newMemory(t), cache.DefaultCacheConfig())

	require.NoError(t, svc.CacheData(ctx, "comment:1", payload{ID: "1"}))
	require.NoError(t, svc.CacheData(ctx, "comment:2", payload{ID: "2"}))
	require.NoError(t, svc.InvalidatePattern(ctx, "comment:*"))

	var got payload
	assert.ErrorIs(t, svc.GetCached(ctx, "comment:1", &got), cache.ErrKeyNotFound)
	assert.ErrorIs(t, svc.GetCached(ctx, "comment:2", &got), cache.ErrKeyNotFound)
}

func TestGenericCacheService_Disabled(t *testing.T) {
	ctx := context.Background()
	svc, err := cache.NewServiceFromPlatform(platformconfig.CacheConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, svc.IsEnabled())
	assert.ErrorIs(t, svc.CacheData(ctx, "k", payload{}), cache.ErrCacheDisabled)
	assert.NoError(t, svc.Ping(ctx))

	var nilSvc *cache.GenericCacheService
	assert.False(t, nilSvc.IsEnabled())
}

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	config := cache.DefaultCacheConfig()
	config.Backend = cache.CacheTypeRedis
	c, err := cache.NewRedisCache(config)
	if err != nil {
		t.Skipf("Skipping test: Redis not available: %v", err)
		return
	}
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "comments:test:redis", []byte("v"), time.Minute))
	value, err := c.Get(ctx, "comments:test:redis")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, c.DeletePattern(ctx, "comments:test:*"))
	_, err = c.Get(ctx, "comments:test:redis")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}
