// Package httpserver provides the HTTP REST API server for the scholar gateway.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/chemcanvas/scholar-gateway/internal/domain"
	"github.com/chemcanvas/scholar-gateway/internal/observability"
	"github.com/chemcanvas/scholar-gateway/internal/scholar"
)

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	provider   scholar.Provider
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server. metrics may be nil, in which case no
// metrics are recorded.
func NewServer(cfg Config, provider scholar.Provider, logger zerolog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		provider: provider,
		logger:   logger.With().Str("component", "http-server").Logger(),
		metrics:  metrics,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestMetricsMiddleware)
	r.Use(corsMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/", s.rootHandler)
	r.Get("/search/publications", s.searchPublications)
	r.Get("/search/author", s.searchAuthors)
	r.Get("/citations", s.getCitations)
	r.Get("/similar", s.getSimilarPapers)
	r.Get("/bibtex", s.getBibtex)
	r.Get("/publication/details", s.getPublicationDetails)

	return r
}

// Handler returns the server's HTTP handler, for use in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// rootHandler returns the service banner and endpoint list.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "Scholar gateway is running",
		"endpoints": []string{
			"/search/publications",
			"/search/author",
			"/citations",
			"/similar",
			"/bibtex",
			"/publication/details",
		},
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeDetailError writes a JSON error response with a detail field.
func writeDetailError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"detail": message,
	})
}

// writeValidationError renders a client input error as a 400 response,
// keeping the bare message in the detail body.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeDetailError(w, http.StatusBadRequest, verr.Message)
		return
	}
	writeDetailError(w, http.StatusBadRequest, err.Error())
}
