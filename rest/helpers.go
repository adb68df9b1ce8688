package rest

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/ingest"
	"iot-command-relay/logger"
	"iot-command-relay/mirror"
)

func ReturnBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func ReturnNotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": message,
	})
}

func ReturnInternalError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": message,
	})
}

// returnError maps a validation error to 400 and anything else to a generic 500. The cause
// of a 500 is only logged.
func (s *Server) returnError(c *fiber.Ctx, endpoint, message string, err error) error {
	var vErr *ingest.ValidationError
	if errors.As(err, &vErr) {
		s.Metrics.ValidationErrors.WithLabelValues(endpoint).Inc()
		return ReturnBadRequest(c, vErr.Error())
	}

	logger.FromContext(c.UserContext()).WithError(err).Error(message)
	return ReturnInternalError(c, message)
}

// Form endpoints answer errors in plain text.
func (s *Server) returnFormError(c *fiber.Ctx, endpoint, message string, err error) error {
	var vErr *ingest.ValidationError
	if errors.As(err, &vErr) {
		s.Metrics.ValidationErrors.WithLabelValues(endpoint).Inc()
		return c.Status(fiber.StatusBadRequest).SendString(vErr.Error())
	}

	logger.FromContext(c.UserContext()).WithError(err).Error(message)
	return c.Status(fiber.StatusInternalServerError).SendString(message)
}

// enqueue persists an instruction and then mirrors it. The returned flag tells whether the
// mirror accepted the command; a mirror failure never fails the enqueue.
func (s *Server) enqueue(ctx context.Context, command, typeTag string) (db.Instruction, bool, error) {
	inst, err := s.Store.EnqueueInstruction(ctx, command, typeTag)
	if err != nil {
		return db.Instruction{}, false, err
	}

	label := typeTag
	if label == "" {
		label = "generic"
	}
	s.Metrics.InstructionsEnqueued.WithLabelValues(label).Inc()

	mirrored := s.mirror(ctx, "command", func(ctx context.Context) error {
		return s.Mirror.PublishCommand(ctx, *inst)
	})

	return *inst, mirrored, nil
}

func (s *Server) ingestReading(ctx context.Context, v ingest.SensorValue) (*db.Reading, bool, error) {
	reading, err := s.Store.InsertReading(ctx, v.Type, v.Value, v.Text)
	if err != nil {
		return nil, false, err
	}

	kind := "numeric"
	if v.Text != nil {
		kind = "text"
	}
	s.Metrics.ReadingsIngested.WithLabelValues(kind).Inc()

	mirrored := s.mirror(ctx, "reading", func(ctx context.Context) error {
		return s.Mirror.PublishReading(ctx, *reading)
	})

	return reading, mirrored, nil
}

// mirror runs a best-effort publish under the mirror timeout.
func (s *Server) mirror(ctx context.Context, kind string, publish func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, s.MirrorTimeout)
	defer cancel()

	err := publish(ctx)
	if errors.Is(err, mirror.ErrDisabled) {
		return false
	}

	s.Metrics.MirrorOutcome(kind, err)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnf("failed to mirror %s", kind)
		return false
	}
	return true
}
