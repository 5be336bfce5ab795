package ingest

import (
	"context"

	"github.com/adidev/chatbot/internal/domain"
)

// Chunker splits extracted text into passages with embeddings unset.
type Chunker interface {
	Chunk(text, sourceID string) ([]domain.Passage, error)
}

// Embedder vectorizes chunk batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index is the write-side contract of the vector index.
type Index interface {
	Insert(passages []domain.Passage) error
	Save(path string) error
	Len() int
}

// Report is the outcome of ingesting one document. Errors lists chunks that
// were skipped; PassagesAdded counts the ones inserted and persisted.
type Report struct {
	Source        string
	PassagesAdded int
	Errors        []ChunkError
}

// ChunkError records a chunk that could not be embedded.
type ChunkError struct {
	ChunkIndex int
	Err        error
}
