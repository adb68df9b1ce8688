package rest

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/ingest"
	"iot-command-relay/logger"
	"iot-command-relay/mirror"
)

func (s *Server) MirrorStatusHandler(c *fiber.Ctx) error {
	return c.JSON(s.Mirror.Status())
}

// MirrorSendCommandHandler publishes a command straight to the mirror. Nothing is written
// locally, so a device polling the relay never sees it.
func (s *Server) MirrorSendCommandHandler(c *fiber.Ctx) error {
	command, err := ingest.DecodeMirrorCommandRequest(c.Body())
	if err != nil {
		return s.returnError(c, "aws-send-command", "Failed to send command", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.MirrorTimeout)
	defer cancel()

	err = s.Mirror.PublishCommand(ctx, db.Instruction{
		Command:   command,
		CreatedAt: time.Now().UTC(),
	})

	if errors.Is(err, mirror.ErrDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Cloud mirror is not configured",
		})
	}

	s.Metrics.MirrorOutcome("command", err)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to send command to mirror")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to publish command",
		})
	}

	response := SuccessResponse{
		Success: true,
		Message: "Command published",
	}

	return c.JSON(response)
}
