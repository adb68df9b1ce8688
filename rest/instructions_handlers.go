package rest

import (
	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/ingest"
)

// PollInstructionsHandler hands every pending instruction to the device. Returned rows are
// already marked SENT; a second poll with nothing new enqueued returns an empty list.
func (s *Server) PollInstructionsHandler(c *fiber.Ctx) error {
	instructions, err := s.Store.FetchPendingInstructions(c.UserContext())
	if err != nil {
		return s.returnError(c, "instructions", "Failed to retrieve pending instructions", err)
	}

	s.Metrics.InstructionsDelivered.Add(float64(len(instructions)))

	payload := make([]InstructionPayload, len(instructions))
	for i, inst := range instructions {
		payload[i] = toInstructionPayload(inst)
	}

	return c.JSON(PollResponse{Instructions: payload})
}

func toInstructionPayload(inst db.Instruction) InstructionPayload {
	return InstructionPayload{
		ID:        inst.ID,
		Commande:  inst.Command,
		Type:      inst.Type,
		Status:    string(inst.Status),
		Timestamp: inst.CreatedAt,
	}
}

func (s *Server) QueueCommandHandler(c *fiber.Ctx) error {
	command, err := ingest.DecodeCommandRequest(c.Body())
	if err != nil {
		return s.returnError(c, "commande", "Failed to queue command", err)
	}

	inst, mirrored, err := s.enqueue(c.UserContext(), command, "")
	if err != nil {
		return s.returnError(c, "commande", "Failed to queue command", err)
	}

	response := QueueCommandResponse{
		Success:  true,
		ID:       inst.ID,
		Mirrored: mirrored,
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (s *Server) SetLEDHandler(c *fiber.Ctx) error {
	rgb, err := ingest.DecodeLEDRequest(c.Body())
	if err != nil {
		return s.returnError(c, "led", "Failed to queue color", err)
	}

	inst, mirrored, err := s.enqueue(c.UserContext(), rgb.Command(), db.TypeColor)
	if err != nil {
		return s.returnError(c, "led", "Failed to queue color", err)
	}

	response := SetLEDResponse{
		Success:  true,
		RGB:      rgb.Slice(),
		Command:  inst.Command,
		ID:       inst.ID,
		Mirrored: mirrored,
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// GetLEDHandler reports the last requested color without touching its delivery status.
func (s *Server) GetLEDHandler(c *fiber.Ctx) error {
	inst, err := s.Store.PeekLatestInstruction(c.UserContext(), db.TypeColor)
	if err != nil {
		return s.returnError(c, "led", "Failed to retrieve LED color", err)
	}

	if inst == nil {
		return ReturnNotFound(c, "No color has been set yet")
	}

	rgb, ok := ingest.ParseColorCommand(inst.Command)
	if !ok {
		return ReturnInternalError(c, "Stored color command is malformed")
	}

	response := LEDStateResponse{
		RGB:       rgb.Slice(),
		Hex:       rgb.Hex(),
		Command:   inst.Command,
		Status:    string(inst.Status),
		Timestamp: inst.CreatedAt,
	}

	return c.JSON(response)
}
