package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"

	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// ContextKeyRequestID is the key used to store request ID in Fiber context
const ContextKeyRequestID = "request_id"

// New creates a middleware that uses the incoming X-Request-Id header or generates one.
// The id is echoed on the response and attached to the request's user context for logging.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(types.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV4()).String()
		}

		c.Locals(ContextKeyRequestID, requestID)
		c.SetUserContext(log.WithRequestID(c.UserContext(), requestID))
		c.Set(types.HeaderRequestID, requestID)

		return c.Next()
	}
}

// GetRequestID retrieves the request ID from Fiber context
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
