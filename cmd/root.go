// Package cmd implements the pitchplay command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/pitchplay/internal/config"
	"github.com/zjrosen/pitchplay/internal/log"
	"github.com/zjrosen/pitchplay/internal/tracing"
)

const sentryFlushTimeout = 2 * time.Second

var (
	version = "dev"

	cfgFile  string
	logLevel string
	cfg      config.Config

	shutdownTracing tracing.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "pitchplay",
	Short: "Load sound banks and play note sequences",
	Long: `pitchplay loads sound banks (JSON maps of note names to OGG/MP3 sources)
from URLs, local files or data URIs, and plays note sequences from them with
per-note timing offsets.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		teardown()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.pitchplay.yaml or ~/.config/pitchplay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		teardown()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is the common case.
	_ = godotenv.Load()

	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	cfg = loaded

	log.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	log.Debug(log.CatConfig, "Configuration loaded", "file", viper.ConfigFileUsed(), "backend", cfg.Audio.Backend)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     "pitchplay@" + version,
		}); err != nil {
			log.Warn(log.CatConfig, "Sentry disabled", "error", err)
		}
	}

	shutdown, err := tracing.Setup(cmd.Context(), tracing.Config{
		Exporter:   cfg.Tracing.Exporter,
		Endpoint:   cfg.Tracing.Endpoint,
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	shutdownTracing = shutdown
	return nil
}

func teardown() {
	if shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := shutdownTracing(ctx); err != nil {
			log.Warn(log.CatTrace, "Tracing shutdown failed", "error", err)
		}
		cancel()
		shutdownTracing = nil
	}
	if sentry.CurrentHub().Client() != nil {
		sentry.Flush(sentryFlushTimeout)
	}
}
