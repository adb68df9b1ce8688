package rest

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

//go:embed openapi.yml
var openAPISpec []byte

func ServeOpenAPISpec(c *fiber.Ctx) error {
	c.Set("Content-Type", "application/x-yaml")
	return c.Send(openAPISpec)
}

func SetupSwagger(app *fiber.App) {
	app.Get("/api/openapi.yaml", ServeOpenAPISpec)

	app.Get("/api/docs/*", swagger.New(swagger.Config{
		URL:          "/api/openapi.yaml",
		DeepLinking:  true,
		DocExpansion: "list",
		Title:        "IoT Command Relay API Documentation",
	}))
}
