// Package identity builds the caller context from trusted identity headers.
//
// Headers are set by an upstream gateway; this middleware only parses them.
package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/internal/middleware/requestid"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// Config holds the configuration for the identity middleware
type Config struct {
	// Required rejects requests without an x-user-id header
	Required bool
}

// New parses x-user-id and x-is-moderator into a types.CallerContext stored under types.CallerCtxName
func New(config Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := types.CallerContext{
			IsModerator: strings.EqualFold(strings.TrimSpace(c.Get(types.HeaderIsModerator)), "true"),
			RequestID:   requestid.GetRequestID(c),
		}

		rawUserID := strings.TrimSpace(c.Get(types.HeaderUserID))
		switch {
		case rawUserID == "" && config.Required:
			return commentErrors.HandleForbiddenError(c, "User ID is required")
		case rawUserID != "":
			userID, err := uuid.FromString(rawUserID)
			if err != nil || userID == uuid.Nil {
				return commentErrors.HandleValidationError(c, "x-user-id must be a valid UUID")
			}
			caller.UserID = userID
		}

		c.Locals(types.CallerCtxName, caller)
		return c.Next()
	}
}

// RequireUser rejects anonymous requests
func RequireUser() fiber.Handler {
	return New(Config{Required: true})
}

// OptionalUser accepts anonymous requests
func OptionalUser() fiber.Handler {
	return New(Config{Required: false})
}

// GetCaller returns the caller context for the request.
// Without the middleware it carries only the request id.
func GetCaller(c *fiber.Ctx) types.CallerContext {
	if caller, ok := c.Locals(types.CallerCtxName).(types.CallerContext); ok {
		return caller
	}
	return types.Anonymous(requestid.GetRequestID(c))
}
