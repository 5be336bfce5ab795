// Package chunker splits extracted document text into overlapping passages.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/adidev/chatbot/internal/domain"
)

// Defaults tuned for resume-sized documents.
const (
	DefaultMaxChars     = 1000
	DefaultOverlapChars = 200
)

// Chunker produces overlapping passages of bounded size, preferring
// sentence boundaries over hard splits.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// New creates a Chunker. Non-positive maxChars falls back to DefaultMaxChars;
// overlap is clamped below maxChars so every step makes progress.
func New(maxChars, overlapChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}
	return &Chunker{maxChars: maxChars, overlapChars: overlapChars}
}

// Chunk splits text into passages with embeddings unset.
// Returns domain.ErrEmptyDocument when the text contains nothing usable
// (e.g. a scanned PDF without an OCR layer).
func (c *Chunker) Chunk(text, sourceID string) ([]domain.Passage, error) {
	normalized := normalize(text)
	if normalized == "" {
		return nil, domain.ErrEmptyDocument
	}

	runes := []rune(normalized)
	var passages []domain.Passage

	start := 0
	for start < len(runes) {
		end := start + c.maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = splitPoint(runes, start, end)
		}

		passages = append(passages, domain.Passage{
			ID:         uuid.NewString(),
			Text:       strings.TrimSpace(string(runes[start:end])),
			Source:     sourceID,
			ChunkIndex: len(passages),
		})

		if end == len(runes) {
			break
		}
		next := end - c.overlapChars
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return passages, nil
}

// normalize collapses all whitespace runs into single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitPoint backs off from limit to the nearest sentence end, then to the
// nearest word boundary, within the second half of the window. Falls back to
// a hard split when the window has no break at all.
func splitPoint(runes []rune, start, limit int) int {
	floor := start + (limit-start)/2

	for i := limit - 1; i > floor; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && runes[i+1] == ' ' {
			return i + 1
		}
	}
	for i := limit - 1; i > floor; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return limit
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ':':
		return true
	}
	return false
}
