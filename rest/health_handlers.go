package rest

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/logger"
	"iot-command-relay/mirror"
)

type HealthResponse struct {
	Status   string        `json:"status"`
	Database string        `json:"database"`
	Mirror   mirror.Status `json:"mirror"`
}

// HealthHandler fails only when storage is unreachable; the mirror is reported but optional.
func (s *Server) HealthHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Mirror:   s.Mirror.Status(),
	}

	if err := s.Store.Ping(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Error("health check failed")
		response.Status = "down"
		response.Database = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	if response.Mirror.Enabled && !response.Mirror.Connected {
		response.Status = "degraded"
	}

	return c.JSON(response)
}
