package cache

import (
	"fmt"

	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
)

// NewCache creates a cache instance based on the provided configuration
func NewCache(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Backend {
	case CacheTypeMemory:
		return NewMemoryCache(config), nil
	case CacheTypeRedis:
		return NewRedisCache(config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCacheType, config.Backend)
	}
}

// ConfigFromPlatform converts the service configuration into a CacheConfig
func ConfigFromPlatform(cfg platformconfig.CacheConfig) *CacheConfig {
	return &CacheConfig{
		Enabled:         cfg.Enabled,
		TTL:             cfg.TTL,
		Prefix:          cfg.Prefix,
		Backend:         CacheType(cfg.Backend),
		MaxMemory:       cfg.MaxMemory,
		CleanupInterval: cfg.CleanupInterval,
		Redis: RedisConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxConnAge:   cfg.Redis.MaxConnAge,
		},
	}
}

// NewServiceFromPlatform builds the cache service used by the comments service.
// A disabled configuration yields a service whose operations return ErrCacheDisabled.
func NewServiceFromPlatform(cfg platformconfig.CacheConfig) (*GenericCacheService, error) {
	config := ConfigFromPlatform(cfg)
	if !config.Enabled {
		return NewGenericCacheService(nil, config), nil
	}

	backend, err := NewCache(config)
	if err != nil {
		return nil, err
	}
	return NewGenericCacheService(backend, config), nil
}
