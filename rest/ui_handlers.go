package rest

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"iot-command-relay/db"
	"iot-command-relay/ingest"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type indexPage struct {
	Readings    []ReadingDetail
	Color       *ingest.RGB
	ColorStatus string
}

// IndexHandler renders the recent readings and the current LED color. It only reads.
func (s *Server) IndexHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	readings, err := s.Store.RecentReadings(ctx, s.RecentLimit)
	if err != nil {
		return s.returnFormError(c, "index", "Failed to load readings", err)
	}

	page := indexPage{Readings: make([]ReadingDetail, len(readings))}
	for i, r := range readings {
		page.Readings[i] = toReadingDetail(r)
	}

	latest, err := s.Store.PeekLatestInstruction(ctx, db.TypeColor)
	if err != nil {
		return s.returnFormError(c, "index", "Failed to load LED color", err)
	}
	if latest != nil {
		if rgb, ok := ingest.ParseColorCommand(latest.Command); ok {
			page.Color = &rgb
			page.ColorStatus = string(latest.Status)
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		return s.returnFormError(c, "index", "Failed to render page", err)
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) CommandFormHandler(c *fiber.Ctx) error {
	command, err := ingest.ValidateCommand(c.FormValue("commande"))
	if err != nil {
		return s.returnFormError(c, "commande-form", "Failed to queue command", err)
	}

	if _, _, err := s.enqueue(c.UserContext(), command, ""); err != nil {
		return s.returnFormError(c, "commande-form", "Failed to queue command", err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) ColorFormHandler(c *fiber.Ctx) error {
	rgb, err := ingest.ParseHexColor(c.FormValue("couleur"))
	if err != nil {
		return s.returnFormError(c, "couleur-form", "Failed to queue color", err)
	}

	if _, _, err := s.enqueue(c.UserContext(), rgb.Command(), db.TypeColor); err != nil {
		return s.returnFormError(c, "couleur-form", "Failed to queue color", err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) SensorFormHandler(c *fiber.Ctx) error {
	value, err := ingest.CoerceSensorValue(c.FormValue("type"), c.FormValue("valeur"))
	if err != nil {
		return s.returnFormError(c, "capteur-form", "Failed to record reading", err)
	}

	if _, _, err := s.ingestReading(c.UserContext(), value); err != nil {
		return s.returnFormError(c, "capteur-form", "Failed to record reading", err)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
