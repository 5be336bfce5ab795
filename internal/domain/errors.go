package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument signals a document with no extractable text.
	ErrEmptyDocument = errors.New("document has no extractable text")
	// ErrExtraction signals a total text extraction failure.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrDimMismatch signals an embedding dimensionality mismatch.
	ErrDimMismatch = errors.New("embedding dimension mismatch")
	// ErrIndexCorrupt signals a structurally invalid index snapshot.
	ErrIndexCorrupt = errors.New("index snapshot corrupt")
	// ErrGenerationUnavailable signals that the generation provider failed or
	// is not configured. The composer falls back to a templated answer.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
	// ErrComposition signals that no answer could be composed at all:
	// generation failed and there were no passages to fall back on.
	ErrComposition = errors.New("answer composition failed")
)

// ProviderError wraps ErrEmbeddingProvider with the HTTP status returned by
// the provider. Status 0 means the request never got a response.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", ErrEmbeddingProvider.Error(), e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrEmbeddingProvider.Error(), e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrEmbeddingProvider }

// NewProviderError creates a provider error with the given HTTP status.
func NewProviderError(status int, message string) error {
	return &ProviderError{Status: status, Message: message}
}

// Transient reports whether the failure is worth retrying: network errors,
// rate limits, timeouts, and server-side failures. Auth and validation
// rejections are permanent.
func (e *ProviderError) Transient() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status == 408 || e.Status == 429:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}
