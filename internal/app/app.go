package app

import (
	"time"

	"certgen/config"
	"certgen/internal/database"
	"certgen/internal/handlers/middleware"
	"certgen/internal/logger"
	"certgen/internal/metrics"
	"certgen/internal/repositories"
	"certgen/internal/services"
	"certgen/internal/utils"
	"certgen/internal/websockets"

	certificateController "certgen/internal/controllers/certificates"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	Metrics    *metrics.Metrics
	Config     config.Config

	// Services
	Composer *services.ComposerService
	Checker  services.Checker

	// Repositories
	CertificateRepo  repositories.CertificateRepository
	VerificationRepo repositories.VerificationRepository
	RunRepo          repositories.GenerationRunRepository

	// Controllers
	CertificateController *certificateController.CertificateController
}

func New(config config.Config) (*App, error) {
	log := logger.New("app").Function("New")

	if err := config.Validate(); err != nil {
		return &App{}, log.Err("invalid config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	app, err := build(config, db)
	if err != nil {
		_ = db.Close()
		return &App{}, err
	}

	if err := app.validate(); err != nil {
		_ = db.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func build(config config.Config, db database.DB) (*App, error) {
	log := logger.New("app").Function("build")

	encodings, err := utils.Encodings(config.Encodings())
	if err != nil {
		return nil, log.Err("failed to resolve roster encodings", err)
	}

	layout, err := services.LookupLayout(config.Layout)
	if err != nil {
		return nil, log.Err("failed to resolve layout", err)
	}

	// Initialize services
	composer := services.NewComposerService(services.ComposerOptions{
		Layout: layout,
		Sizing: services.FontSizing{
			Initial:  config.NameFontSize,
			Floor:    config.NameMinFontSize,
			MaxWidth: config.NameMaxWidth,
		},
		FontPath: config.FontPath,
		Format:   config.OutputFormat,
	})

	// Initialize repositories
	certificateRepo, err := repositories.NewCertificate(config.CertificateDir, composer.Extension())
	if err != nil {
		return nil, log.Err("failed to create certificate repository", err)
	}
	verificationRepo, err := repositories.NewVerification(
		db,
		config.VerificationDir,
		time.Duration(config.VerificationCacheTTL)*time.Second,
	)
	if err != nil {
		return nil, log.Err("failed to create verification repository", err)
	}
	runRepo := repositories.NewGenerationRun(db)

	checker, err := services.NewChecker(config.VerificationStrategy, certificateRepo, verificationRepo)
	if err != nil {
		return nil, log.Err("failed to create verification checker", err)
	}

	metrics := metrics.New()
	websocket := websockets.New()

	// Initialize controllers with repositories and services
	controller := certificateController.New(
		config,
		utils.NewRosterReader(encodings),
		composer,
		checker,
		certificateRepo,
		verificationRepo,
		runRepo,
		metrics,
		websocket,
	)

	return &App{
		Database:              db,
		Config:                config,
		Middleware:            middleware.New(config),
		Websocket:             websocket,
		Metrics:               metrics,
		Composer:              composer,
		Checker:               checker,
		CertificateRepo:       certificateRepo,
		VerificationRepo:      verificationRepo,
		RunRepo:               runRepo,
		CertificateController: controller,
	}, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.Metrics,
		a.Composer,
		a.Checker,
		a.CertificateRepo,
		a.VerificationRepo,
		a.RunRepo,
		a.CertificateController,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
