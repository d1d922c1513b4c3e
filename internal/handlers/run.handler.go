package handlers

import (
	"errors"

	"certgen/internal/app"
	certificateController "certgen/internal/controllers/certificates"
	"certgen/internal/logger"
	"certgen/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

type RunHandler struct {
	Handler
	controller *certificateController.CertificateController
}

func NewRunHandler(app app.App, router fiber.Router) *RunHandler {
	log := logger.New("handlers").File("run_handler")
	return &RunHandler{
		controller: app.CertificateController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *RunHandler) Register() {
	runs := h.router.Group("/runs")
	runs.Get("/:id", h.getRun)
	runs.Get("/", h.getRuns)
}

func (h *RunHandler) getRun(c *fiber.Ctx) error {
	log := h.log.Function("getRun")

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "run ID is required"})
	}

	run, err := h.controller.GetRun(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).
			JSON(fiber.Map{"message": "run not found"})
	}
	if err != nil {
		log.Er("failed to get run", err, "id", id)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to get run", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success", "run": run})
}

func (h *RunHandler) getRuns(c *fiber.Ctx) error {
	log := h.log.Function("getRuns")

	runs, err := h.controller.ListRuns(c.Context())
	if err != nil {
		log.Er("failed to get runs", err)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to get runs", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success", "runs": runs})
}
