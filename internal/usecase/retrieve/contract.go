package retrieve

import (
	"context"

	"github.com/adidev/chatbot/internal/domain"
)

// Searcher is the vector index contract for query-time lookups.
type Searcher interface {
	Search(query []float32, k int) ([]domain.ScoredPassage, error)
	Len() int
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
