package domain

import "context"

// TextExtractor converts raw document bytes into plain text.
// A total failure is reported as ErrExtraction; an extractor that succeeds
// but finds no text returns an empty string and lets the chunker reject it.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, sourceID string) (string, error)
}
