// Package ratelimit throttles mutating comment requests per caller.
package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// Config holds the configuration for rate limiting middleware
type Config struct {
	// Max requests allowed per key within Window
	Max    int
	Window time.Duration

	// Next defines a function to skip this middleware when returned true
	Next func(c *fiber.Ctx) bool

	// Custom key generator (optional, defaults to the caller's user id, then IP)
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached defines the response when rate limit is exceeded
	LimitReached func(c *fiber.Ctx) error
}

// DefaultConfig returns 30 requests per minute
func DefaultConfig() Config {
	return Config{
		Max:    30,
		Window: time.Minute,
	}
}

// FromPlatform builds a Config from the service configuration
func FromPlatform(cfg platformconfig.RateLimitConfig) Config {
	return Config{
		Max:    cfg.Max,
		Window: cfg.Window,
	}
}

func configDefault(config Config) Config {
	defaults := DefaultConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}

	if config.KeyGenerator == nil {
		config.KeyGenerator = CallerKey
	}

	if config.LimitReached == nil {
		config.LimitReached = func(c *fiber.Ctx) error {
			log.WarnWithContext(c.UserContext(), "[RateLimit] Rate limit exceeded for %s %s by %s", c.Method(), c.Path(), CallerKey(c))
			err := commentErrors.New(commentErrors.ErrRateLimited, "Too many requests. Please try again later.")
			return commentErrors.HandleServiceError(c, err)
		}
	}

	return config
}

// CallerKey keys the limit on the x-user-id header, falling back to the client IP
func CallerKey(c *fiber.Ctx) string {
	if userID := c.Get(types.HeaderUserID); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}

// New creates a new rate limiting middleware handler
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return limiter.New(limiter.Config{
		Max:          cfg.Max,
		Expiration:   cfg.Window,
		KeyGenerator: cfg.KeyGenerator,
		LimitReached: cfg.LimitReached,
		Next:         cfg.Next,
	})
}
