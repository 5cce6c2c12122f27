package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/toastboard"
	"github.com/jpalmerr/toastboard/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the Toastboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the toast server",
	Long: `Start the Toastboard server.

The server will:
  - Load an optional .env file, then the YAML configuration
  - Show the configured startup toasts
  - Serve the toast page, REST API, streams and metrics on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  toastboard serve -c config.yaml
  toastboard serve -c config.yaml --env-file .env`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().String("env-file", "", "optional .env file loaded before the config")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("config loaded",
		"toasts", len(cfg.Toasts),
		"log_file", cfg.Log.File,
	)

	opts := append(config.BuildOptions(cfg), toastboard.WithLogger(logger))
	board, err := toastboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create Toastboard: %w", err)
	}

	for _, in := range config.BuildToasts(cfg) {
		if _, err := board.Notify(in); err != nil {
			_ = board.Close()
			return fmt.Errorf("failed to show startup toast %q: %w", in.Title, err)
		}
	}

	logger.Info("starting server", "port", board.Port())

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start blocks until ctx is cancelled and closes the board on return
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
