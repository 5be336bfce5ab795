package domain

import "context"

// Generator produces free-text answers from a prompt. Implementations wrap
// an external language-model provider; failures must be reported as
// ErrGenerationUnavailable so callers can take the templated fallback path.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
