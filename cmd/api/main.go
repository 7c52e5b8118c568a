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

	"swatch-extractor/extractor"
	"swatch-extractor/internal/api"
	"swatch-extractor/internal/config"
	"swatch-extractor/internal/metrics"
	"swatch-extractor/internal/types"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	logger := newLogger()

	cfg, err := config.Load(os.Getenv("SWATCH_CONFIG"))
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
	}

	recorder := metrics.NewRecorder()
	runner := func(ctx context.Context, runConfig *types.Config) (*types.RunResult, error) {
		return extractor.Run(ctx, runConfig, logger, recorder)
	}
	server := api.NewServer(cfg, logger, recorder, runner)

	httpServer := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: api.DefaultRunTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting API server on port %s", serverPort)
	logger.Info("Available endpoints:")
	logger.Info("  POST /scrape  - Run an extraction for the configured collection")
	logger.Info("  GET  /health  - Health check")
	logger.Info("  GET  /metrics - Prometheus metrics")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
