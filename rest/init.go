package rest

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"iot-command-relay/db"
	"iot-command-relay/logger"
	"iot-command-relay/metrics"
	"iot-command-relay/mirror"
)

const defaultMirrorTimeout = 3 * time.Second

// Server carries the collaborators shared by every handler. All of them are safe for
// concurrent use; handlers keep no other state between requests.
type Server struct {
	Store         *db.Store
	Mirror        mirror.Mirror
	Metrics       *metrics.Metrics
	RecentLimit   int
	MirrorTimeout time.Duration
}

func NewServer(store *db.Store, m mirror.Mirror, met *metrics.Metrics) *Server {
	if m == nil {
		m = mirror.Noop{}
	}
	if met == nil {
		met = metrics.New()
	}
	return &Server{
		Store:         store,
		Mirror:        m,
		Metrics:       met,
		RecentLimit:   db.DefaultRecentReadings,
		MirrorTimeout: defaultMirrorTimeout,
	}
}

// NewApp returns a fiber app using go-json for bodies.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "iot-command-relay",
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
}

func Init(app *fiber.App, s *Server) {
	SetupSwagger(app)

	app.Get("/", s.IndexHandler)
	app.Post("/commande", s.CommandFormHandler)
	app.Post("/couleur", s.ColorFormHandler)
	app.Post("/ajouter_capteur", s.SensorFormHandler)

	api := app.Group("/api")
	api.Post("/capteur", s.CreateReadingHandler)
	api.Get("/capteurs", s.ListReadingsHandler)
	api.Post("/led", s.SetLEDHandler)
	api.Get("/led", s.GetLEDHandler)
	api.Post("/commande", s.QueueCommandHandler)
	api.Get("/instructions", s.PollInstructionsHandler)
	api.Get("/reports", s.GetReportsHandler)
	api.Get("/aws/status", s.MirrorStatusHandler)
	api.Post("/aws/send-command", s.MirrorSendCommandHandler)

	app.Get("/healthz", s.HealthHandler)
	app.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	logger.Default().Info("REST API started")
}
