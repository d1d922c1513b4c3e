package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"certgen/config"
	"certgen/internal/app"
	"certgen/internal/handlers"
	"certgen/internal/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	flushCache bool
}

func serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload, download and verification web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return serveRun(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.flushCache, "flush-cache", false, "drop cached verification records before serving")
	return cmd
}

func serveRun(ctx context.Context, cfg config.Config, opts serveOptions) error {
	log := logger.New(programName).Function("serveRun")

	a, err := app.New(cfg)
	if err != nil {
		return log.Err("failed to initialize app", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	if err := prepareCache(a, opts); err != nil {
		return err
	}

	server, err := handlers.NewServer(a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		log.Info("server listening", "addr", addr, "strategy", cfg.VerificationStrategy, "format", cfg.OutputFormat)
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return log.Err("server stopped", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
		if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return log.Err("failed to shut down server", err)
		}
		return nil
	}
}

func prepareCache(a *app.App, opts serveOptions) error {
	if !opts.flushCache {
		return nil
	}
	if err := a.Database.FlushAllCaches(); err != nil {
		return logger.New(programName).Function("prepareCache").Err("failed to flush verification cache", err)
	}
	return nil
}
