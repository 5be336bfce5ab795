package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.text != "" {
		return m.text, nil
	}
	return string(data), nil
}

type mockChunker struct {
	size int
}

func (m *mockChunker) Chunk(text, sourceID string) ([]domain.Passage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	size := m.size
	if size <= 0 {
		size = 10
	}
	var passages []domain.Passage
	for i := 0; i < size; i++ {
		passages = append(passages, domain.Passage{
			ID:         fmt.Sprintf("%s-%d", sourceID, i),
			Text:       fmt.Sprintf("chunk %d of %s", i, text),
			Source:     sourceID,
			ChunkIndex: i,
		})
	}
	return passages, nil
}

type mockBatchEmbedder struct {
	calls     int
	failCalls map[int]error // 1-based call number -> error
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if err, ok := m.failCalls[m.calls]; ok {
		return domain.BatchEmbeddingResult{}, err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i), 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

type mockIndex struct {
	passages  []domain.Passage
	saves     int
	savedPath string
	insertErr error
	saveErr   error
}

func (m *mockIndex) Insert(passages []domain.Passage) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.passages = append(m.passages, passages...)
	return nil
}

func (m *mockIndex) Save(path string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.savedPath = path
	return nil
}

func (m *mockIndex) Len() int { return len(m.passages) }

func newService(extractor *mockExtractor, chunker *mockChunker, embedder *mockBatchEmbedder, idx *mockIndex) *Service {
	return New(extractor, chunker, embedder, idx, "data/index.snapshot", zap.NewNop())
}

func TestIngest_FullPipeline(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockBatchEmbedder{}
	s := newService(&mockExtractor{}, &mockChunker{size: 3}, emb, idx)

	report, err := s.Ingest(context.Background(), []byte("resume text"), "resume.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if report.PassagesAdded != 3 {
		t.Errorf("passages added = %d, want 3", report.PassagesAdded)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected chunk errors: %v", report.Errors)
	}
	if idx.Len() != 3 {
		t.Errorf("index size = %d, want 3", idx.Len())
	}
	for i, p := range idx.passages {
		if p.Embedding == nil {
			t.Errorf("passage %d inserted without embedding", i)
		}
	}
	if idx.saves != 1 || idx.savedPath != "data/index.snapshot" {
		t.Errorf("saves = %d at %q, want 1 at data/index.snapshot", idx.saves, idx.savedPath)
	}
}

func TestIngest_ExtractionFailureLeavesIndexUnchanged(t *testing.T) {
	idx := &mockIndex{}
	s := newService(&mockExtractor{err: fmt.Errorf("broken xref: %w", domain.ErrExtraction)},
		&mockChunker{}, &mockBatchEmbedder{}, idx)

	_, err := s.Ingest(context.Background(), []byte("%PDF-garbage"), "broken.pdf")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("got %v, want ErrExtraction", err)
	}
	if idx.Len() != 0 {
		t.Errorf("index size = %d after rejected document, want 0", idx.Len())
	}
	if idx.saves != 0 {
		t.Errorf("index persisted after rejected document")
	}
}

func TestIngest_EmptyDocumentRejected(t *testing.T) {
	idx := &mockIndex{}
	s := newService(&mockExtractor{}, &mockChunker{}, &mockBatchEmbedder{}, idx)

	_, err := s.Ingest(context.Background(), []byte("   "), "empty.txt")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
	if idx.Len() != 0 {
		t.Errorf("index size = %d, want 0", idx.Len())
	}
}

func TestIngest_FailedBatchIsSkippedRestSurvives(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockBatchEmbedder{failCalls: map[int]error{2: domain.NewProviderError(500, "boom")}}
	s := newService(&mockExtractor{}, &mockChunker{size: 5}, emb, idx).WithBatchSize(2)

	report, err := s.Ingest(context.Background(), []byte("text"), "doc.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Batches: [0,1] ok, [2,3] failed, [4] ok.
	if report.PassagesAdded != 3 {
		t.Errorf("passages added = %d, want 3", report.PassagesAdded)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("chunk errors = %d, want 2", len(report.Errors))
	}
	if report.Errors[0].ChunkIndex != 2 || report.Errors[1].ChunkIndex != 3 {
		t.Errorf("wrong chunks reported: %d, %d", report.Errors[0].ChunkIndex, report.Errors[1].ChunkIndex)
	}
	if !errors.Is(report.Errors[0].Err, domain.ErrEmbeddingProvider) {
		t.Errorf("chunk error = %v, want ErrEmbeddingProvider", report.Errors[0].Err)
	}
	if idx.Len() != 3 {
		t.Errorf("index size = %d, want 3", idx.Len())
	}
	if idx.saves != 1 {
		t.Errorf("saves = %d, want 1", idx.saves)
	}
}

func TestIngest_AllBatchesFail(t *testing.T) {
	idx := &mockIndex{}
	emb := &mockBatchEmbedder{failCalls: map[int]error{
		1: domain.ErrEmbeddingProvider,
		2: domain.ErrEmbeddingProvider,
		3: domain.ErrEmbeddingProvider,
	}}
	s := newService(&mockExtractor{}, &mockChunker{size: 5}, emb, idx).WithBatchSize(2)

	report, err := s.Ingest(context.Background(), []byte("text"), "doc.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.PassagesAdded != 0 {
		t.Errorf("passages added = %d, want 0", report.PassagesAdded)
	}
	if len(report.Errors) != 5 {
		t.Errorf("chunk errors = %d, want 5", len(report.Errors))
	}
	if idx.saves != 0 {
		t.Errorf("index persisted with nothing added")
	}
}

func TestIngest_CancellationKeepsPartialProgress(t *testing.T) {
	idx := &mockIndex{}
	ctx, cancel := context.WithCancel(context.Background())
	emb := &cancellingEmbedder{cancel: cancel, cancelOnCall: 1}
	s := New(&mockExtractor{}, &mockChunker{size: 4}, emb, idx, "data/index.snapshot", zap.NewNop()).WithBatchSize(2)

	report, err := s.Ingest(ctx, []byte("text"), "doc.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	// The first batch completed before cancellation took effect.
	if report.PassagesAdded != 2 {
		t.Errorf("passages added = %d, want 2", report.PassagesAdded)
	}
	if idx.Len() != 2 {
		t.Errorf("index size = %d, want 2", idx.Len())
	}
	if idx.saves != 1 {
		t.Errorf("partial progress not persisted")
	}
}

// cancellingEmbedder cancels the surrounding context after serving a set
// number of batches.
type cancellingEmbedder struct {
	calls        int
	cancelOnCall int
	cancel       context.CancelFunc
}

func (c *cancellingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	c.calls++
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{1}
	}
	if c.calls == c.cancelOnCall {
		c.cancel()
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}
