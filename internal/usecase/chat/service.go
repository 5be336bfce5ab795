// Package chat orchestrates a chat turn: structured-profile answers first,
// then retrieval plus composition.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

// NoInformationMessage is the user-facing answer when nothing is known yet.
const NoInformationMessage = "I don't have information on that yet. " +
	"Try adding documents to the knowledge base first."

// Service answers chat messages.
type Service struct {
	profile   *Profile // nil when no structured profile is loaded
	retriever Retriever
	composer  Composer
	index     IndexReader
	logger    *zap.Logger
}

// New creates a chat service. profile may be nil.
func New(profile *Profile, retriever Retriever, composer Composer, index IndexReader, logger *zap.Logger) *Service {
	return &Service{
		profile:   profile,
		retriever: retriever,
		composer:  composer,
		index:     index,
		logger:    logger,
	}
}

// Respond produces the answer for one chat message.
//
// Structured-profile intents answer immediately without touching providers.
// Otherwise the message goes through retrieve and compose. Provider failures
// degrade step by step rather than surfacing: a failed query embedding falls
// back to the index head, and a total outage over an empty knowledge base
// yields the no-information answer.
func (s *Service) Respond(ctx context.Context, message string) (domain.Answer, error) {
	if s.profile != nil {
		if ans, ok := s.profile.Answer(message); ok {
			s.logger.Debug("Answered from structured profile")
			return ans, nil
		}
	}

	retrieval, err := s.retriever.Retrieve(ctx, message, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Answer{}, fmt.Errorf("retrieve: %w", ctxErr)
		}
		s.logger.Warn("Retrieval failed, degrading to index head", zap.Error(err))
		retrieval = s.index.Head(defaultDegradedK)
	}

	ans, err := s.composer.Compose(ctx, message, retrieval)
	if err != nil {
		if errors.Is(err, domain.ErrComposition) {
			return domain.Answer{Text: NoInformationMessage}, nil
		}
		return domain.Answer{}, fmt.Errorf("compose: %w", err)
	}
	return ans, nil
}

const defaultDegradedK = 3
