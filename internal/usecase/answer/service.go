// Package answer composes chat answers from retrieved passages, delegating
// free-text generation to an external provider with a deterministic
// templated fallback.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
	"github.com/adidev/chatbot/internal/metrics"
)

// Service builds a prompt from retrieval results and produces the final
// answer text.
type Service struct {
	generator  Generator // nil when no provider is configured
	charBudget int
	logger     *zap.Logger
}

// New creates a composer. generator may be nil; charBudget <= 0 uses the default.
func New(generator Generator, charBudget int, logger *zap.Logger) *Service {
	if charBudget <= 0 {
		charBudget = DefaultPromptCharBudget
	}
	return &Service{generator: generator, charBudget: charBudget, logger: logger}
}

// Compose produces an answer for the query from the retrieved passages.
// When the generation provider fails or is not configured, the answer is
// assembled from the top passages instead; domain.ErrComposition is returned
// only when generation is unavailable AND there are no passages at all.
func (s *Service) Compose(ctx context.Context, query string, retrieval []domain.ScoredPassage) (domain.Answer, error) {
	passages := fitToBudget(retrieval, s.charBudget)

	if s.generator != nil {
		result, err := s.generator.Generate(ctx, systemPrompt, buildUserPrompt(query, passages))
		if err == nil {
			return domain.Answer{Text: result.Text, Sources: sourceList(passages)}, nil
		}
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
		}
		s.logger.Warn("Generation provider unavailable, using template fallback", zap.Error(err))
	}

	return s.fallback(passages)
}

// fallback assembles a deterministic answer directly from the top passages.
func (s *Service) fallback(passages []domain.ScoredPassage) (domain.Answer, error) {
	if len(passages) == 0 {
		return domain.Answer{}, fmt.Errorf(
			"no provider and no passages to fall back on: %w", domain.ErrComposition)
	}

	metrics.AnswerFallbacksTotal.Inc()

	var sb strings.Builder
	sb.WriteString("Based on available information: ")
	sb.WriteString(passages[0].Passage.Text)
	for _, p := range passages[1:] {
		sb.WriteString("\n\n")
		sb.WriteString(p.Passage.Text)
	}

	return domain.Answer{Text: sb.String(), Sources: sourceList(passages)}, nil
}
