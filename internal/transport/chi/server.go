// Package chi implements the HTTP API surface.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
	chatuc "github.com/adidev/chatbot/internal/usecase/chat"
	healthuc "github.com/adidev/chatbot/internal/usecase/health"
	ingestuc "github.com/adidev/chatbot/internal/usecase/ingest"
	"github.com/adidev/chatbot/internal/version"
)

// maxUploadBytes bounds ingested document size.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the chat, ingestion, and health services to HTTP routes.
type Server struct {
	chat          *chatuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:   chat,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, "empty_document"),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, "extraction_failed"),
		sentinelHandler(domain.ErrDimMismatch, http.StatusConflict, "dimension_mismatch"),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrIndexCorrupt, http.StatusInternalServerError, "index_corrupt"),
		sentinelHandler(domain.ErrComposition, http.StatusServiceUnavailable, "no_information_available"),
	}
	return s
}

// Routes registers all handlers on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.Home)
	r.Get("/api/health", s.HealthCheck)
	r.Post("/api/chat", s.Chat)
	r.Post("/api/ingest", s.Ingest)
	r.Get("/metrics", s.Metrics)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

type ingestTextRequest struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

type ingestResponse struct {
	Source        string   `json:"source"`
	PassagesAdded int      `json:"passages_added"`
	Errors        []string `json:"errors,omitempty"`
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "AdiDev Chatbot API is running!",
		"status":  "active",
		"version": version.Version,
	})
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "Message is required")
		return
	}

	ans, err := s.chat.Respond(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := ans.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: ans.Text, Sources: sources})
}

// Ingest handles POST /api/ingest. Accepts a multipart upload under "file",
// or a JSON body with raw text for non-PDF content.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	data, sourceID, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	report, err := s.ingest.Ingest(r.Context(), data, sourceID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ingestResponse{
		Source:        report.Source,
		PassagesAdded: report.PassagesAdded,
	}
	for _, ce := range report.Errors {
		resp.Errors = append(resp.Errors, safeDomainMessage(ce.Err))
	}

	status := http.StatusOK
	if len(report.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req ingestTextRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
			return nil, "", false
		}
		if req.SourceID == "" || req.Text == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "source_id and text are required")
			return nil, "", false
		}
		return []byte(req.Text), req.SourceID, true
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid multipart form: "+err.Error())
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", `Multipart field "file" is required`)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to read upload: "+err.Error())
		return nil, "", false
	}
	return data, header.Filename, true
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":   report.Status,
		"service":  "AdiDev Chatbot API",
		"checks":   report.Checks,
		"passages": report.Passages,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyDocument,
		domain.ErrExtraction,
		domain.ErrEmbeddingProvider,
		domain.ErrDimMismatch,
		domain.ErrIndexCorrupt,
		domain.ErrComposition,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
