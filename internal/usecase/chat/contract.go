package chat

import (
	"context"

	"github.com/adidev/chatbot/internal/domain"
)

// Retriever returns the passages nearest to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error)
}

// Composer turns a query and its retrieval into a final answer.
type Composer interface {
	Compose(ctx context.Context, query string, retrieval []domain.ScoredPassage) (domain.Answer, error)
}

// IndexReader exposes the degraded read path used when the query cannot
// be embedded.
type IndexReader interface {
	Head(k int) []domain.ScoredPassage
}
