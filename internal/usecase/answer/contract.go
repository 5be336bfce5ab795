package answer

import (
	"context"

	"github.com/adidev/chatbot/internal/domain"
)

// Generator produces free-text answers. nil disables generation entirely and
// every answer takes the templated fallback path.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (domain.GenerationResult, error)
}
