package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"
)

// cacheItem represents an item in the memory cache
type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return now.After(i.expiration)
}

// MemoryCache implements Cache interface using in-memory storage
type MemoryCache struct {
	items         map[string]*cacheItem
	mutex         sync.RWMutex
	maxMemory     int64
	currentMemory int64
	hits          int64
	misses        int64
	evictions     int64
	done          chan struct{}
	closeOnce     sync.Once
	closed        atomic.Bool
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	c := &MemoryCache{
		items:     make(map[string]*cacheItem),
		maxMemory: config.MaxMemory,
		done:      make(chan struct{}),
	}

	interval := config.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go c.startCleanup(interval)

	return c
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheDisabled
	}

	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists || item.expired(time.Now()) {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

// Set stores a value in cache with expiration
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheDisabled
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	newItem := &cacheItem{value: valueCopy, expiration: time.Now().Add(ttl)}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if old, ok := c.items[key]; ok {
		c.currentMemory -= itemSize(key, old)
	}
	c.items[key] = newItem
	c.currentMemory += itemSize(key, newItem)
	c.evictIfNeeded(key)
	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.removeLocked(key)
	return nil
}

// DeletePattern removes all keys matching a glob pattern (path.Match syntax, as Redis uses for SCAN MATCH)
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			c.removeLocked(key)
		}
	}
	return nil
}

// Ping always succeeds for an open memory cache
func (c *MemoryCache) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheDisabled
	}
	return nil
}

// Close stops the cleanup loop and drops all items
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)

		c.mutex.Lock()
		c.items = make(map[string]*cacheItem)
		c.currentMemory = 0
		c.mutex.Unlock()
	})
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	var active int64
	for _, item := range c.items {
		if !item.expired(now) {
			active++
		}
	}

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return CacheStats{
		Hits:        hits,
		Misses:      misses,
		HitRatio:    hitRatio,
		Keys:        active,
		MemoryUsage: c.currentMemory,
		Evictions:   atomic.LoadInt64(&c.evictions),
	}
}

func (c *MemoryCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCache) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if item.expired(now) {
			c.removeLocked(key)
		}
	}
}

// evictIfNeeded drops expired items first, then arbitrary ones, until under the limit.
// The key just written is kept.
func (c *MemoryCache) evictIfNeeded(keep string) {
	if c.maxMemory <= 0 || c.currentMemory <= c.maxMemory {
		return
	}

	now := time.Now()
	for key, item := range c.items {
		if key != keep && item.expired(now) {
			c.removeLocked(key)
			atomic.AddInt64(&c.evictions, 1)
		}
	}

	for key := range c.items {
		if c.currentMemory <= c.maxMemory {
			return
		}
		if key == keep {
			continue
		}
		c.removeLocked(key)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *MemoryCache) removeLocked(key string) {
	if item, ok := c.items[key]; ok {
		delete(c.items, key)
		c.currentMemory -= itemSize(key, item)
	}
}

// itemSize is a rough estimate: key + value + fixed overhead
func itemSize(key string, item *cacheItem) int64 {
	return int64(len(key) + len(item.value) + 64)
}
