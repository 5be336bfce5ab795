// Package ingest orchestrates document ingestion: extract, chunk, embed,
// insert, persist.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

// DefaultEmbedBatchSize bounds chunks per embedding API call.
const DefaultEmbedBatchSize = 64

// Service runs the ingestion pipeline for one document at a time.
// Ingestion is best-effort: chunks whose embedding fails are skipped and
// reported, the rest are inserted and persisted.
type Service struct {
	extractor    domain.TextExtractor
	chunker      Chunker
	embedder     Embedder
	index        Index
	snapshotPath string
	batchSize    int
	logger       *zap.Logger
}

// New creates an ingestion service.
func New(
	extractor domain.TextExtractor,
	chunker Chunker,
	embedder Embedder,
	index Index,
	snapshotPath string,
	logger *zap.Logger,
) *Service {
	return &Service{
		extractor:    extractor,
		chunker:      chunker,
		embedder:     embedder,
		index:        index,
		snapshotPath: snapshotPath,
		batchSize:    DefaultEmbedBatchSize,
		logger:       logger,
	}
}

// WithBatchSize overrides the embedding batch size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Ingest extracts, chunks, embeds, and indexes a document, then persists the
// index. Total extraction failure rejects the document and leaves the index
// unchanged. Cancellation stops after the in-flight batch: chunks embedded so
// far are still inserted and persisted, and the context error is returned
// alongside the partial report.
func (s *Service) Ingest(ctx context.Context, data []byte, sourceID string) (Report, error) {
	report := Report{Source: sourceID}

	text, err := s.extractor.Extract(ctx, data, sourceID)
	if err != nil {
		return report, fmt.Errorf("extract %s: %w", sourceID, err)
	}

	chunks, err := s.chunker.Chunk(text, sourceID)
	if err != nil {
		return report, fmt.Errorf("chunk %s: %w", sourceID, err)
	}

	embedded, ctxErr := s.embedChunks(ctx, chunks, &report)

	if len(embedded) > 0 {
		if err := s.index.Insert(embedded); err != nil {
			return report, fmt.Errorf("insert passages from %s: %w", sourceID, err)
		}
		if err := s.index.Save(s.snapshotPath); err != nil {
			return report, fmt.Errorf("persist index after %s: %w", sourceID, err)
		}
		report.PassagesAdded = len(embedded)
	}

	s.logger.Info("Document ingested",
		zap.String("source", sourceID),
		zap.Int("chunks", len(chunks)),
		zap.Int("passages_added", report.PassagesAdded),
		zap.Int("chunk_errors", len(report.Errors)),
		zap.Int("index_size", s.index.Len()),
	)

	if ctxErr != nil {
		return report, fmt.Errorf("ingest %s interrupted: %w", sourceID, ctxErr)
	}
	return report, nil
}

// embedChunks embeds chunks batch by batch. A failed batch is recorded in the
// report and skipped; the remaining batches still run. Returns the passages
// that received embeddings and a context error if ingestion was cancelled.
func (s *Service) embedChunks(ctx context.Context, chunks []domain.Passage, report *Report) ([]domain.Passage, error) {
	var embedded []domain.Passage

	for start := 0; start < len(chunks); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return embedded, err
		}

		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		res, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			s.logger.Warn("Embedding batch failed, skipping chunks",
				zap.String("source", report.Source),
				zap.Int("from", start),
				zap.Int("to", end),
				zap.Error(err),
			)
			for i := range batch {
				report.Errors = append(report.Errors, ChunkError{
					ChunkIndex: batch[i].ChunkIndex,
					Err:        err,
				})
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return embedded, ctxErr
			}
			continue
		}

		for i := range batch {
			p := batch[i]
			p.Embedding = res.Embeddings[i]
			embedded = append(embedded, p)
		}
	}

	return embedded, nil
}
