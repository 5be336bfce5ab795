// Package retrieve implements query-time passage retrieval.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

// DefaultTopK is the number of passages pulled per query.
const DefaultTopK = 3

// Service embeds a query and returns its nearest passages.
type Service struct {
	index  Searcher
	embed  Embedder
	topK   int
	logger *zap.Logger
}

// New creates a retrieval service. k <= 0 falls back to DefaultTopK.
func New(index Searcher, embed Embedder, k int, logger *zap.Logger) *Service {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Service{index: index, embed: embed, topK: k, logger: logger}
}

// Retrieve returns up to k passages nearest to the query, ascending by
// distance. An empty index is a valid, answerable state and yields an empty
// result with no error. k <= 0 uses the configured default.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredPassage, error) {
	if s.index.Len() == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = s.topK
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.index.Search(embResult.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	s.logger.Debug("Retrieved passages",
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
		zap.Int("query_tokens", embResult.TotalTokens),
	)

	return hits, nil
}
