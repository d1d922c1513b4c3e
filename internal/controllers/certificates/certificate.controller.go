package certificateController

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"certgen/config"
	"certgen/internal/logger"
	"certgen/internal/metrics"
	. "certgen/internal/models"
	"certgen/internal/repositories"
	"certgen/internal/services"
	"certgen/internal/utils"
)

// WSManager interface for WebSocket operations to avoid import cycles
type WSManager interface {
	SendGenerationProgress(runID string, data map[string]any)
	SendGenerationComplete(runID string, result map[string]any)
	SendGenerationError(runID string, errorMsg string)
}

type noopWS struct{}

func (noopWS) SendGenerationProgress(string, map[string]any) {}
func (noopWS) SendGenerationComplete(string, map[string]any) {}
func (noopWS) SendGenerationError(string, string)            {}

type CertificateController struct {
	Config       config.Config
	reader       *utils.RosterReader
	validator    *utils.RowValidator
	composer     *services.ComposerService
	checker      services.Checker
	certificates repositories.CertificateRepository
	records      repositories.VerificationRepository
	runs         repositories.GenerationRunRepository
	metrics      *metrics.Metrics
	wsManager    WSManager
	log          logger.Logger
}

func New(
	config config.Config,
	reader *utils.RosterReader,
	composer *services.ComposerService,
	checker services.Checker,
	certificates repositories.CertificateRepository,
	records repositories.VerificationRepository,
	runs repositories.GenerationRunRepository,
	metrics *metrics.Metrics,
	wsManager WSManager,
) *CertificateController {
	if wsManager == nil {
		wsManager = noopWS{}
	}

	return &CertificateController{
		Config:       config,
		reader:       reader,
		validator:    utils.NewRowValidator(),
		composer:     composer,
		checker:      checker,
		certificates: certificates,
		records:      records,
		runs:         runs,
		metrics:      metrics,
		wsManager:    wsManager,
		log:          logger.New("certificateController"),
	}
}

// Generate runs the whole pipeline for one upload. Encoding and schema failures
// are returned as is, before any certificate is written. Any other failure is
// an *utils.UnexpectedError; certificates written before it stay in place.
func (c *CertificateController) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	log := c.log.Function("Generate")
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, &utils.UnexpectedError{Stage: "start generation", Err: err}
	}

	run := &GenerationRun{
		TemplateName: filepath.Base(req.TemplatePath),
		RosterName:   filepath.Base(req.RosterPath),
		Status:       RunStatusRunning,
	}
	if err := c.runs.Create(ctx, run); err != nil {
		c.metrics.ObserveGeneration(start, metrics.OutcomeFailed)
		return nil, &utils.UnexpectedError{Stage: "record run", Err: err}
	}
	runID := run.ID

	c.wsManager.SendGenerationProgress(runID, map[string]any{
		"phase":   "reading",
		"message": "Reading roster...",
	})

	roster, err := c.reader.Read(req.RosterPath)
	if err != nil {
		return nil, c.fail(ctx, run, start, "read roster", err)
	}
	run.Encoding = roster.Encoding

	valid, malformed := c.validator.Validate(roster.Records)
	if len(malformed) > 0 {
		log.Warn(fmt.Sprintf("Found %d problematic rows", len(malformed)), "runId", runID)
		for _, row := range malformed {
			log.Warn(fmt.Sprintf("Row %d: %s", row.RowNumber, FormatRawRow(row.Raw)), "runId", runID)
		}
		if err := c.runs.AddSkippedRows(ctx, runID, malformed); err != nil {
			log.Er("failed to record skipped rows", err, "runId", runID)
		}
	}

	c.wsManager.SendGenerationProgress(runID, map[string]any{
		"phase":    "composing",
		"encoding": roster.Encoding,
		"valid":    len(valid),
		"skipped":  len(malformed),
		"message":  fmt.Sprintf("Generating %d certificates...", len(valid)),
	})

	processed, err := c.composer.Compose(ctx, req.TemplatePath, valid, services.ComposeOptions{
		BaseURL:  c.baseURL(req.BaseURL),
		IDScheme: c.Config.CertificateIDScheme,
		Sink:     &artifactSink{controller: c},
		Progress: func(done, total int, id string) {
			c.wsManager.SendGenerationProgress(runID, map[string]any{
				"phase":         "composing",
				"rowsProcessed": done,
				"total":         total,
				"certificateId": id,
			})
		},
	})
	run.Processed = processed
	run.Skipped = len(malformed)
	if err != nil {
		return nil, c.fail(ctx, run, start, "compose certificates", err)
	}

	duration := int(time.Since(start).Milliseconds())
	run.Status = RunStatusCompleted
	run.DurationMs = &duration
	if err := c.runs.Update(ctx, run); err != nil {
		log.Er("failed to update completed run", err, "runId", runID)
	}

	c.metrics.AddRowsSkipped(len(malformed))
	c.metrics.ObserveGeneration(start, metrics.OutcomeCompleted)

	result := &GenerationResult{
		RunID:     runID,
		Encoding:  roster.Encoding,
		Processed: processed,
		Skipped:   len(malformed),
		Warnings:  warnings(malformed),
	}

	c.wsManager.SendGenerationComplete(runID, map[string]any{
		"id":         runID,
		"encoding":   result.Encoding,
		"processed":  result.Processed,
		"skipped":    result.Skipped,
		"durationMs": duration,
	})

	log.Info("generation completed",
		"runId", runID,
		"encoding", result.Encoding,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"durationMs", duration)

	return result, nil
}

func warnings(malformed []MalformedRow) []RowMalformedWarning {
	if len(malformed) == 0 {
		return nil
	}
	out := make([]RowMalformedWarning, len(malformed))
	for i, row := range malformed {
		out[i] = RowMalformedWarning{RowNumber: row.RowNumber, Raw: row.Raw}
	}
	return out
}

func (c *CertificateController) fail(ctx context.Context, run *GenerationRun, start time.Time, stage string, err error) error {
	log := c.log.Function("fail")

	if !utils.IsStructural(err) {
		err = &utils.UnexpectedError{Stage: stage, Err: err}
	}

	message := err.Error()
	duration := int(time.Since(start).Milliseconds())
	run.Status = RunStatusFailed
	run.ErrorMessage = &message
	run.DurationMs = &duration
	if updateErr := c.runs.Update(ctx, run); updateErr != nil {
		log.Er("failed to update failed run", updateErr, "runId", run.ID)
	}

	c.metrics.ObserveGeneration(start, metrics.OutcomeFailed)
	c.wsManager.SendGenerationError(run.ID, message)

	log.Er("generation failed", err, "runId", run.ID, "stage", stage, "processed", run.Processed)
	return err
}

// baseURL picks the verification host: configured, then request-derived, then
// the local server.
func (c *CertificateController) baseURL(requestBase string) string {
	if c.Config.VerifyBaseURL != "" {
		return c.Config.VerifyBaseURL
	}
	if requestBase != "" {
		return requestBase
	}
	return fmt.Sprintf("http://localhost:%d", c.Config.ServerPort)
}

type artifactSink struct {
	controller *CertificateController
}

func (s *artifactSink) Store(ctx context.Context, artifact services.Artifact) error {
	c := s.controller

	if _, err := c.certificates.Save(ctx, artifact.ID, artifact.Data); err != nil {
		return err
	}

	if c.Config.VerificationStrategy == config.StrategyRecord {
		record := VerificationRecord{
			Name:          artifact.Row.Name,
			Event:         artifact.Row.Event,
			Date:          artifact.Row.Date,
			CertificateID: artifact.ID,
			Digest:        services.Digest(artifact.Data),
		}
		if err := c.records.Save(ctx, record); err != nil {
			return err
		}
	}

	c.metrics.IncrementCertificatesGenerated()
	return nil
}

// FetchCertificate resolves the stored artifact path for id.
func (c *CertificateController) FetchCertificate(ctx context.Context, id string) (string, error) {
	exists, err := c.certificates.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", repositories.ErrNotFound
	}
	return c.certificates.Path(id)
}

func (c *CertificateController) CheckVerification(ctx context.Context, id string) (*Verification, error) {
	verification, err := c.checker.Check(ctx, id)
	switch {
	case err == nil:
		c.metrics.IncrementVerification(metrics.OutcomeVerified)
	case errors.Is(err, repositories.ErrNotFound):
		c.metrics.IncrementVerification(metrics.OutcomeNotFound)
	default:
		c.metrics.IncrementVerification(metrics.OutcomeError)
	}
	return verification, err
}

func (c *CertificateController) GetRun(ctx context.Context, id string) (*GenerationRun, error) {
	return c.runs.GetByID(ctx, id)
}

func (c *CertificateController) ListRuns(ctx context.Context) ([]*GenerationRun, error) {
	return c.runs.GetRecent(ctx)
}
