package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler over the named dependency checks
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// HealthStatus is the body of the readiness probe
type HealthStatus struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details"`
}

// Liveness reports that the process is serving requests
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness runs every dependency check and returns 503 if any fails
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := HealthStatus{Status: "ok", Details: make(map[string]string, len(h.checks))}
	code := fiber.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.WarnWithContext(ctx, "Health check %s failed: %v", name, err)
			status.Details[name] = "down"
			status.Status = "error"
			code = fiber.StatusServiceUnavailable
			continue
		}
		status.Details[name] = "up"
	}

	return c.Status(code).JSON(status)
}
