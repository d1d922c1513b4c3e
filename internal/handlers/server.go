package handlers

import (
	"certgen/internal/app"
	"certgen/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewServer builds the fiber app with every route registered. Paths are
// unescaped before routing so ids with spaces or non-ASCII letters match.
func NewServer(app *app.App) (*fiber.App, error) {
	log := logger.New("handlers").File("server").Function("NewServer")

	server := fiber.New(fiber.Config{
		AppName:               "certgen " + app.Config.GeneralVersion,
		BodyLimit:             app.Config.UploadLimitMB * 1024 * 1024,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	server.Use(recover.New())
	server.Use(app.Middleware.RequestID())
	server.Use(app.Middleware.Logging())

	if err := Router(server, app); err != nil {
		return nil, log.Err("failed to register routes", err)
	}

	return server, nil
}
