// Package main provides the entry point for the document OCR function.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chemcanvas/scholar-gateway/internal/config"
	"github.com/chemcanvas/scholar-gateway/internal/extraction"
	"github.com/chemcanvas/scholar-gateway/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "ocr-function").Logger()
	logger.Info().Msg("ocr function starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("ocr_function")
	}

	engine := extraction.DefaultEngine()
	if engine == nil {
		logger.Warn().Msg("no OCR engine compiled in, all requests will receive the fallback response")
	} else {
		logger.Info().Str("engine", engine.Name()).Msg("OCR engine ready")
	}

	handler := extraction.NewHandler(extraction.HandlerConfig{
		Engine:    engine,
		Structure: extraction.DefaultStructureEngine(),
		Materializer: extraction.NewMaterializer(extraction.MaterializerConfig{
			FetchTimeout:         cfg.Extraction.FetchTimeout,
			MaxBytes:             cfg.Extraction.MaxFetchBytes,
			AllowPrivateNetworks: cfg.Extraction.AllowPrivateNetworks,
			TempDir:              cfg.Extraction.TempDir,
		}),
		Languages: cfg.Extraction.Languages,
		Logger:    logger,
		Metrics:   metrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/extract", handler)
	mux.Handle("/", handler)

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddress(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("address", srv.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	logger.Info().Str("http_address", srv.Addr).Msg("ocr function is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down ocr function")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("ocr function shutdown complete")
	return nil
}
