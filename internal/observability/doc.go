// Package observability provides logging and metrics support for the
// scholar gateway.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for HTTP requests, scholar searches, and extractions
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("search started")
//
// Add request context to logger:
//
//	logger = observability.WithRequestContext(logger, requestID, endpoint)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("scholar_gateway")
//
// Record metrics:
//
//	metrics.RecordSearchStarted("search_publications")
//	metrics.RecordExtractionFallback("base64", elapsed.Seconds())
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: Request identifier
//   - endpoint: Handling endpoint name
//   - query: User's search query
//   - source: Upstream source (Google Scholar)
//   - title: Publication title
//   - source_kind: Extraction input kind (base64, url)
//   - engine: OCR engine name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
