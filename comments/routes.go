package comments

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/qolzam/telar/apps/comments/comments/handlers"
	"github.com/qolzam/telar/apps/comments/internal/middleware/identity"
	"github.com/qolzam/telar/apps/comments/internal/middleware/ratelimit"
	"github.com/qolzam/telar/apps/comments/internal/middleware/requestid"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
)

// CommentsHandlers holds all the handlers this router needs.
type CommentsHandlers struct {
	CommentHandler *handlers.CommentHandler
	HealthHandler  *handlers.HealthHandler
}

// RegisterRoutes is the single entry point for setting up comments routes.
// Reads are open, writes require x-user-id and are rate limited per caller when enabled.
func RegisterRoutes(app *fiber.App, h *CommentsHandlers, cfg *platformconfig.Config, metrics *observability.Metrics) {
	app.Use(requestid.New())

	if h.HealthHandler != nil {
		health := app.Group("/health")
		health.Get("/", h.HealthHandler.Readiness)
		health.Get("/liveness", h.HealthHandler.Liveness)
		health.Get("/readiness", h.HealthHandler.Readiness)
	}

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}

	writeLimit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.RateLimit.Enabled {
		writeLimit = ratelimit.New(ratelimit.FromPlatform(cfg.RateLimit))
	}

	requireUser := identity.RequireUser()
	optionalUser := identity.OptionalUser()

	group := app.Group("/comments")

	group.Post("/", writeLimit, optionalUser, h.CommentHandler.CreateComment)
	group.Get("/", h.CommentHandler.ListComments)
	group.Get("/:commentId", h.CommentHandler.GetComment)
	group.Get("/:commentId/replies", h.CommentHandler.GetReplies)
	group.Get("/authors/:authorId/count", h.CommentHandler.CountByAuthor)
	group.Patch("/:commentId", writeLimit, requireUser, h.CommentHandler.UpdateComment)
	group.Delete("/:commentId", writeLimit, requireUser, h.CommentHandler.DeleteComment)
	group.Post("/:commentId/like", writeLimit, requireUser, h.CommentHandler.LikeComment)
	group.Delete("/:commentId/like", writeLimit, requireUser, h.CommentHandler.UnlikeComment)
	group.Post("/:commentId/restore", writeLimit, requireUser, h.CommentHandler.RestoreComment)
}
