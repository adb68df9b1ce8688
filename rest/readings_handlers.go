package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/ingest"
)

const maxReadingsLimit = 100

var readingUnits = map[string]string{
	"temperature": "°C",
	"humidite":    "%",
	"luminosite":  "lux",
	"pression":    "hPa",
}

// displayValue renders a reading for people: the text value when set, pressed/released for
// the push button, otherwise the number with its unit.
func displayValue(r db.Reading) string {
	if r.TextValue != nil {
		return *r.TextValue
	}
	if r.Type == ingest.ButtonType {
		if r.Value != 0 {
			return "pressed"
		}
		return "released"
	}

	value := strconv.FormatFloat(r.Value, 'f', -1, 64)
	if unit, ok := readingUnits[r.Type]; ok {
		return value + " " + unit
	}
	return value
}

func toReadingDetail(r db.Reading) ReadingDetail {
	return ReadingDetail{
		ID:        r.ID,
		Type:      r.Type,
		Value:     r.Value,
		TextValue: r.TextValue,
		Display:   displayValue(r),
		CreatedAt: r.CreatedAt,
	}
}

func (s *Server) CreateReadingHandler(c *fiber.Ctx) error {
	value, err := ingest.DecodeSensorRequest(c.Body())
	if err != nil {
		return s.returnError(c, "capteur", "Failed to record reading", err)
	}

	reading, mirrored, err := s.ingestReading(c.UserContext(), value)
	if err != nil {
		return s.returnError(c, "capteur", "Failed to record reading", err)
	}

	response := CreateReadingResponse{
		Success:  true,
		Message:  "Reading recorded",
		ID:       reading.ID,
		Mirrored: mirrored,
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (s *Server) ListReadingsHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", s.RecentLimit)
	if limit < 1 {
		limit = s.RecentLimit
	}
	if limit > maxReadingsLimit {
		limit = maxReadingsLimit
	}

	readings, err := s.Store.RecentReadings(c.UserContext(), limit)
	if err != nil {
		return s.returnError(c, "capteurs", "Failed to retrieve readings", err)
	}

	details := make([]ReadingDetail, len(readings))
	for i, r := range readings {
		details[i] = toReadingDetail(r)
	}

	return c.JSON(ReadingsListResponse{Readings: details})
}
