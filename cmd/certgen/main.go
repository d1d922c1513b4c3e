package main

import (
	"context"
	"errors"
	"os"

	"certgen/config"
	"certgen/internal/logger"

	"github.com/spf13/cobra"
)

const programName = "certgen"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

type configKey struct{}

func configFromContext(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(config.Config)
	if !ok {
		return config.Config{}, errors.New("no config found in context")
	}
	return cfg, nil
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Generate QR-verifiable certificates from a template and a roster",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if globalFlags.debug {
			cfg.LogLevel = "debug"
		}

		logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		logger.New(programName).Debug("config loaded", "configFile", configFile, "version", cfg.GeneralVersion)

		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(generateCommand())
	rootCmd.AddCommand(verifyCommand())
	rootCmd.AddCommand(sampleCommand())

	return rootCmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
