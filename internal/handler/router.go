package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with every route registered.
func NewApp(aggregator Aggregator, timeout time.Duration, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "github-profile",
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	NewProfileHandler(aggregator, timeout, logger).Register(app)

	return app
}
