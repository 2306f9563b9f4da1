package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope of every successful comment response
type SuccessResponse struct {
	Data       interface{} `json:"data"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Timestamp  string      `json:"timestamp"`
}

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Data:       data,
		StatusCode: status,
		Message:    "Success",
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	})
}
