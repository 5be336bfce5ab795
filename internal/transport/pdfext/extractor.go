// Package pdfext extracts plain text from uploaded documents.
package pdfext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

// Extractor converts PDF bytes to plain text. Non-PDF payloads are accepted
// as UTF-8 text, matching the sample-content path of the knowledge base.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract implements domain.TextExtractor.
func (e *Extractor) Extract(ctx context.Context, data []byte, sourceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extract %s: %w", sourceID, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s: empty payload: %w", sourceID, domain.ErrExtraction)
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		text, err := e.extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("%s: %v: %w", sourceID, err, domain.ErrExtraction)
		}
		return text, nil
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: not a PDF and not valid UTF-8 text: %w",
			sourceID, domain.ErrExtraction)
	}
	return string(data), nil
}

func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("PDF parser panicked", zap.Any("panic", r))
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("Failed to extract page text", zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
