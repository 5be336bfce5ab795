package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/chunker"
	"github.com/adidev/chatbot/internal/config"
	"github.com/adidev/chatbot/internal/domain"
	logpkg "github.com/adidev/chatbot/internal/logger"
	"github.com/adidev/chatbot/internal/metrics"
	"github.com/adidev/chatbot/internal/repository/embcache"
	indexrepo "github.com/adidev/chatbot/internal/repository/index"
	chiTransport "github.com/adidev/chatbot/internal/transport/chi"
	openaiProv "github.com/adidev/chatbot/internal/transport/openai"
	"github.com/adidev/chatbot/internal/transport/pdfext"
	answeruc "github.com/adidev/chatbot/internal/usecase/answer"
	chatuc "github.com/adidev/chatbot/internal/usecase/chat"
	embeddinguc "github.com/adidev/chatbot/internal/usecase/embedding"
	healthuc "github.com/adidev/chatbot/internal/usecase/health"
	ingestuc "github.com/adidev/chatbot/internal/usecase/ingest"
	retrieveuc "github.com/adidev/chatbot/internal/usecase/retrieve"
	"github.com/adidev/chatbot/internal/version"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting AdiDev chatbot API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("snapshot_path", cfg.Storage.SnapshotPath),
	)

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	embedder := buildEmbedder(cfg, logger)

	var generator answeruc.Generator
	if cfg.Generation.APIKey != "" {
		generator = openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			Provider:    cfg.Generation.Provider,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
			Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
			Logger:      logger,
		})
	} else {
		logger.Warn("No generation api_key configured, answers use the template fallback")
	}

	idx := loadIndex(cfg.Storage.SnapshotPath, logger)

	profile, err := chatuc.LoadProfile(cfg.Storage.ProfilePath)
	if err != nil {
		logger.Warn("Failed to load structured profile", zap.Error(err))
	} else if profile != nil {
		logger.Info("Loaded structured profile", zap.String("path", cfg.Storage.ProfilePath))
	}

	// Use case services
	chunk := chunker.New(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars)
	retriever := retrieveuc.New(idx, embedder, cfg.Retrieval.TopK, logger)
	composer := answeruc.New(generator, cfg.Retrieval.PromptCharBudget, logger)
	chatSvc := chatuc.New(profile, retriever, composer, idx, logger)
	ingestSvc := ingestuc.New(pdfext.New(logger), chunk, embedder, idx, cfg.Storage.SnapshotPath, logger).
		WithBatchSize(cfg.Embedding.BatchSize)
	healthSvc := healthuc.New(idx, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(chatSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Flush the index so nothing ingested since the last save is lost.
	if idx.Len() > 0 {
		if err := idx.Save(cfg.Storage.SnapshotPath); err != nil {
			logger.Error("Failed to flush index snapshot", zap.Error(err))
		}
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Retrying.
func buildEmbedder(cfg config.Config, logger *zap.Logger) *embeddinguc.RetryingEmbedder {
	base := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Provider: cfg.Embedding.Provider,
		Timeout:  time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:   logger,
	})

	var embedder domain.Embedder = base
	if !cfg.Embedding.CacheDisabled {
		embedder = embcache.New(base, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewRetryingEmbedder(
		embedder,
		cfg.Embedding.MaxRetries,
		time.Duration(cfg.Embedding.RetryBackoffMS)*time.Millisecond,
		logger,
	)
}

// loadIndex loads the snapshot if present, starting empty otherwise.
// A corrupt snapshot is logged and left on disk; re-ingestion rebuilds it.
func loadIndex(path string, logger *zap.Logger) *indexrepo.Index {
	if _, err := os.Stat(path); err != nil {
		logger.Info("No index snapshot found, starting with an empty knowledge base",
			zap.String("path", path))
		return indexrepo.New()
	}

	idx, err := indexrepo.Load(path)
	if err != nil {
		logger.Error("Failed to load index snapshot, starting empty",
			zap.String("path", path), zap.Error(err))
		return indexrepo.New()
	}

	logger.Info("Loaded index snapshot",
		zap.String("path", path),
		zap.Int("passages", idx.Len()),
		zap.Int("dimensions", idx.Dimension()),
	)
	return idx
}

// embeddingHealthChecker adapts the embedder chain to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.HealthChecker
}

func newEmbeddingHealthChecker(embedder domain.HealthChecker) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.embedder.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
