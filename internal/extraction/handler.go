package extraction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/chemcanvas/scholar-gateway/internal/observability"
)

// Request is the extraction function's POST body. Exactly one of Image or
// FileURL must be supplied. ExtractType is accepted for forward compatibility
// but does not filter the output.
type Request struct {
	Image       string `json:"image"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
	ExtractType string `json:"extract_type" validate:"omitempty,oneof=text table figure all"`
}

// Handler is the HTTP handler for the extraction function.
type Handler struct {
	engine       Engine
	structure    StructureEngine
	materializer *Materializer
	languages    []string
	validate     *validator.Validate
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// HandlerConfig wires the handler's collaborators. Engine and Structure may
// be nil; a nil Engine triggers the fallback response. Metrics may be nil.
type HandlerConfig struct {
	Engine       Engine
	Structure    StructureEngine
	Materializer *Materializer
	Languages    []string
	Logger       zerolog.Logger
	Metrics      *observability.Metrics
}

// NewHandler creates the extraction handler.
func NewHandler(cfg HandlerConfig) *Handler {
	m := cfg.Materializer
	if m == nil {
		m = NewMaterializer(MaterializerConfig{})
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Handler{
		engine:       cfg.Engine,
		structure:    cfg.Structure,
		materializer: m,
		languages:    langs,
		validate:     validator.New(),
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// ServeHTTP implements the single-endpoint function: permissive CORS on every
// response, unconditional preflight, then the extraction pass.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Image == "" && req.FileURL == "" {
		h.writeError(w, statusForError(ErrNoSource), ErrNoSource.Error())
		return
	}

	sourceKind := "base64"
	if req.Image == "" {
		sourceKind = "url"
	}
	start := time.Now()

	if h.engine == nil {
		h.recordFallback(sourceKind, start)
		h.logger.Info().Str("source_kind", sourceKind).Msg("ocr engine unavailable, returning fallback")
		h.writeJSON(w, http.StatusOK, NewFallbackResult())
		return
	}

	logger := observability.WithExtractionContext(h.logger, sourceKind, h.engine.Name())
	h.recordStarted(sourceKind)

	var (
		path    string
		cleanup func()
		err     error
	)
	if req.Image != "" {
		path, cleanup, err = h.materializer.FromBase64(req.Image)
	} else {
		path, cleanup, err = h.materializer.FromURL(r.Context(), req.FileURL)
	}
	if err != nil {
		h.recordFailed(sourceKind, start)
		logger.Error().Err(err).Msg("failed to materialize image")
		h.writeError(w, statusForError(err), err.Error())
		return
	}
	defer cleanup()

	result, err := Extract(r.Context(), h.engine, h.structure, path, h.languages)
	if err != nil {
		h.recordFailed(sourceKind, start)
		logger.Error().Err(err).Msg("extraction failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recordCompleted(sourceKind, start, len(result.TextBlocks))
	logger.Info().
		Int("text_blocks", len(result.TextBlocks)).
		Int("tables", len(result.Tables)).
		Dur("duration", time.Since(start)).
		Msg("extraction completed")
	h.writeJSON(w, http.StatusOK, result)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrNoSource), errors.Is(err, ErrBadImageData):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrPrivateAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) recordStarted(sourceKind string) {
	if h.metrics != nil {
		h.metrics.RecordExtractionStarted(sourceKind)
	}
}

func (h *Handler) recordCompleted(sourceKind string, start time.Time, blocks int) {
	if h.metrics != nil {
		h.metrics.RecordExtractionCompleted(sourceKind, blocks, time.Since(start).Seconds())
	}
}

func (h *Handler) recordFailed(sourceKind string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordExtractionFailed(sourceKind, time.Since(start).Seconds())
	}
}

func (h *Handler) recordFallback(sourceKind string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordExtractionFallback(sourceKind, time.Since(start).Seconds())
	}
}
