package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"

	"certgen/internal/app"
	certificateController "certgen/internal/controllers/certificates"
	"certgen/internal/logger"
	. "certgen/internal/models"
	"certgen/internal/repositories"
	"certgen/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const notFoundMessage = "Certificate not found or invalid."

type CertificateHandler struct {
	Handler
	controller *certificateController.CertificateController
	uploadDir  string
}

func NewCertificateHandler(app app.App, router fiber.Router) *CertificateHandler {
	log := logger.New("handlers").File("certificate_handler")
	return &CertificateHandler{
		controller: app.CertificateController,
		uploadDir:  app.Config.UploadDir,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CertificateHandler) Register() {
	h.router.Get("/admin", h.adminForm)
	h.router.Post("/admin", h.generate)
	h.router.Get("/download/:cert_id", h.download)
	h.router.Get("/verify/:cert_id", h.verify)
	h.router.Get("/verify_certificate", h.verifyRedirect)
	h.router.Get("/certificate_form", h.certificateForm)
}

func (h *CertificateHandler) adminForm(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(adminPage)
}

func (h *CertificateHandler) certificateForm(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(certificateFormPage)
}

func (h *CertificateHandler) generate(c *fiber.Ctx) error {
	log := h.log.Function("generate")

	templatePath, err := h.saveUpload(c, "template")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "Error: " + err.Error()})
	}
	rosterPath, err := h.saveUpload(c, "csv_data")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "Error: " + err.Error()})
	}

	result, err := h.controller.Generate(c.Context(), GenerateRequest{
		TemplatePath: templatePath,
		RosterPath:   rosterPath,
		BaseURL:      c.BaseURL(),
	})
	if err != nil {
		if utils.IsStructural(err) {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"message": "Error: " + err.Error()})
		}
		log.Er("An unexpected error occurred", err)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "An unexpected error occurred: " + err.Error()})
	}

	return c.JSON(fiber.Map{"message": resultMessage(result), "result": result})
}

func resultMessage(result *GenerationResult) string {
	message := fmt.Sprintf("Certificates generated successfully for %d entries.", result.Processed)
	if result.Skipped > 0 {
		message += fmt.Sprintf(" %d rows were skipped due to formatting issues. Check the server logs for details.", result.Skipped)
	}
	return message
}

// saveUpload stores a multipart file under its base name in the upload
// directory.
func (h *CertificateHandler) saveUpload(c *fiber.Ctx, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing %s file", field)
	}

	name, err := uploadName(file)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", h.log.Function("saveUpload").Err("failed to create upload directory", err, "dir", h.uploadDir)
	}

	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveFile(file, path); err != nil {
		return "", h.log.Function("saveUpload").Err("failed to save upload", err, "path", path)
	}
	return path, nil
}

func uploadName(file *multipart.FileHeader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filepath.ToSlash(file.Filename)))
	if name == "/" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", file.Filename)
	}
	return name, nil
}

func (h *CertificateHandler) download(c *fiber.Ctx) error {
	log := h.log.Function("download")

	id := c.Params("cert_id")
	path, err := h.controller.FetchCertificate(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).
			JSON(fiber.Map{"message": notFoundMessage})
	}
	if err != nil {
		log.Er("failed to fetch certificate", err, "id", id)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to fetch certificate"})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Er("failed to read certificate", err, "path", path)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to fetch certificate"})
	}

	c.Attachment(filepath.Base(path))
	return c.Send(data)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	log := h.log.Function("verify")

	id := c.Params("cert_id")
	verification, err := h.controller.CheckVerification(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).
			JSON(fiber.Map{"message": notFoundMessage, "verified": false})
	}
	if err != nil {
		log.Er("failed to check verification", err, "id", id)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to check verification"})
	}

	return c.JSON(fiber.Map{
		"message":      fmt.Sprintf("Certificate %s is verified and valid.", id),
		"verified":     true,
		"verification": verification,
	})
}

func (h *CertificateHandler) verifyRedirect(c *fiber.Ctx) error {
	id := c.Query("cert_id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "cert_id is required"})
	}
	return c.Redirect("/verify/"+url.PathEscape(id), fiber.StatusFound)
}
