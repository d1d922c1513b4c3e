package middleware

import (
	"io"
	"strings"

	"certgen/config"
	"certgen/internal/logger"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = fiber.HeaderXRequestID
	requestIDKey    = "requestId"
)

const accessFormat = "${status} ${method} ${path} ${latency} ${locals:requestId}"

type Middleware struct {
	Config config.Config
	log    logger.Logger
}

func New(config config.Config) Middleware {
	return Middleware{
		Config: config,
		log:    logger.New("middleware"),
	}
}

// RequestID tags each request, keeping a caller supplied id when present.
func (m Middleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	})
}

// Logging writes one structured line per request through slog.
func (m Middleware) Logging() fiber.Handler {
	log := m.log.Function("Logging")

	return fiberlogger.New(fiberlogger.Config{
		Format:        accessFormat,
		Output:        io.Discard,
		DisableColors: true,
		Done: func(c *fiber.Ctx, line []byte) {
			status := c.Response().StatusCode()
			args := []any{
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"requestId", c.Locals(requestIDKey),
				"access", strings.TrimSpace(string(line)),
			}
			if status >= fiber.StatusInternalServerError {
				log.Warn("request failed", args...)
				return
			}
			log.Debug("request handled", args...)
		},
	})
}
