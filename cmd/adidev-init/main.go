// Command adidev-init builds the knowledge base from a directory of
// documents and writes the index snapshot the API server loads at startup.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/chunker"
	"github.com/adidev/chatbot/internal/config"
	logpkg "github.com/adidev/chatbot/internal/logger"
	"github.com/adidev/chatbot/internal/metrics"
	"github.com/adidev/chatbot/internal/repository/embcache"
	indexrepo "github.com/adidev/chatbot/internal/repository/index"
	openaiProv "github.com/adidev/chatbot/internal/transport/openai"
	"github.com/adidev/chatbot/internal/transport/pdfext"
	embeddinguc "github.com/adidev/chatbot/internal/usecase/embedding"
	ingestuc "github.com/adidev/chatbot/internal/usecase/ingest"
)

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data", "", "directory of documents to ingest (default from config)")
	snapshot := flag.String("snapshot", "", "snapshot output path (default from config)")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *snapshot != "" {
		cfg.Storage.SnapshotPath = *snapshot
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterProviderMetrics()

	base := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Provider: cfg.Embedding.Provider,
		Timeout:  time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	embedder := embeddinguc.NewRetryingEmbedder(
		embcache.New(base, metrics.EmbeddingCacheTotal, logger),
		cfg.Embedding.MaxRetries,
		time.Duration(cfg.Embedding.RetryBackoffMS)*time.Millisecond,
		logger,
	)

	// Rebuild from scratch: the snapshot is replaced, not appended to.
	idx := indexrepo.New()
	svc := ingestuc.New(
		pdfext.New(logger),
		chunker.New(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars),
		embedder,
		idx,
		cfg.Storage.SnapshotPath,
		logger,
	).WithBatchSize(cfg.Embedding.BatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := listDocuments(cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to list documents", zap.String("dir", cfg.Storage.DataDir), zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Fatal("No .pdf or .txt documents found", zap.String("dir", cfg.Storage.DataDir))
	}

	var added, failed int
	for _, path := range docs {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read document", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}

		report, err := svc.Ingest(ctx, data, filepath.Base(path))
		if err != nil {
			logger.Error("Failed to ingest document", zap.String("path", path), zap.Error(err))
			failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		added += report.PassagesAdded
	}

	logger.Info("Knowledge base built",
		zap.Int("documents", len(docs)),
		zap.Int("failed", failed),
		zap.Int("passages", added),
		zap.String("snapshot", cfg.Storage.SnapshotPath),
	)
}

// listDocuments returns the .pdf and .txt files directly inside dir, sorted.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt":
			docs = append(docs, filepath.Join(dir, e.Name()))
		}
	}
	return docs, nil
}
