// main package for the voiceclone-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/archive"
	"github.com/book-expert/voiceclone-service/internal/config"
	"github.com/book-expert/voiceclone-service/internal/core"
	"github.com/book-expert/voiceclone-service/internal/httpapi"
	"github.com/book-expert/voiceclone-service/internal/refstore"
	"github.com/book-expert/voiceclone-service/internal/synthesis"
)

const shutdownTimeout = 5 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voiceclone-server.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	// The model is fetched once at startup; a missing or gated model
	// aborts startup rather than failing the first request.
	fetcher := synthesis.NewHubFetcher(secrets.HuggingFaceToken, log)

	err = fetcher.EnsureModel(
		context.Background(),
		cfg.TTS.ModelID,
		cfg.TTS.ModelDir,
		synthesis.DefaultModelFiles(),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure model '%s': %w", cfg.TTS.ModelID, err)
	}

	engine, err := synthesis.New(cfg.TTS, log)
	if err != nil {
		return fmt.Errorf("failed to create synthesis engine: %w", err)
	}

	refs, err := refstore.New(cfg.TTS.PromptsDir, log)
	if err != nil {
		return err
	}

	var archiver core.ClipArchiver = archive.NoOp{}

	if cfg.Archive.Enabled {
		publisher, connectErr := archive.Connect(cfg.Archive, log)
		if connectErr != nil {
			return connectErr
		}

		defer publisher.Close()

		archiver = publisher
	}

	synthTimeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	api := httpapi.NewServer(engine, refs, archiver, synthTimeout, cfg.Server.WebDir, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
		// Read/write timeouts stay unset: the synthesis WebSocket holds
		// its connection open across many requests.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.System("Voice-clone server listening on %s", server.Addr)

		serveErr := server.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case serveErr := <-errCh:
		return fmt.Errorf("server error: %w", serveErr)
	case sig := <-sigCh:
		log.System("Received signal %v, shutting down.", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		_ = server.Close()

		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.System("Server stopped.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
