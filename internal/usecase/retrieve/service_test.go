package retrieve

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

type mockSearcher struct {
	hits    []domain.ScoredPassage
	err     error
	length  int
	gotK    int
	gotVec  []float32
	queried bool
}

func (m *mockSearcher) Search(query []float32, k int) ([]domain.ScoredPassage, error) {
	m.queried = true
	m.gotK = k
	m.gotVec = query
	return m.hits, m.err
}

func (m *mockSearcher) Len() int { return m.length }

type mockEmbedder struct {
	embedding []float32
	err       error
	called    bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.embedding}, nil
}

func TestRetrieve_ReturnsHits(t *testing.T) {
	idx := &mockSearcher{
		length: 2,
		hits: []domain.ScoredPassage{
			{Passage: domain.Passage{ID: "a"}, Distance: 0.1},
			{Passage: domain.Passage{ID: "b"}, Distance: 0.4},
		},
	}
	emb := &mockEmbedder{embedding: []float32{1, 0}}
	s := New(idx, emb, 3, zap.NewNop())

	hits, err := s.Retrieve(context.Background(), "what did Aditya build", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if idx.gotK != 3 {
		t.Errorf("search depth = %d, want configured default 3", idx.gotK)
	}
	if len(idx.gotVec) != 2 {
		t.Errorf("query vector not passed through: %v", idx.gotVec)
	}
}

func TestRetrieve_EmptyIndexSkipsEmbedding(t *testing.T) {
	idx := &mockSearcher{length: 0}
	emb := &mockEmbedder{embedding: []float32{1}}
	s := New(idx, emb, 3, zap.NewNop())

	hits, err := s.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if hits != nil {
		t.Errorf("got %v hits from empty index", hits)
	}
	if emb.called {
		t.Error("embedder called for empty index")
	}
	if idx.queried {
		t.Error("index searched while empty")
	}
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	idx := &mockSearcher{length: 1}
	emb := &mockEmbedder{err: domain.ErrEmbeddingProvider}
	s := New(idx, emb, 3, zap.NewNop())

	_, err := s.Retrieve(context.Background(), "anything", 3)
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("got %v, want ErrEmbeddingProvider", err)
	}
	if idx.queried {
		t.Error("index searched after embedding failure")
	}
}

func TestRetrieve_ExplicitKOverridesDefault(t *testing.T) {
	idx := &mockSearcher{length: 5}
	emb := &mockEmbedder{embedding: []float32{1}}
	s := New(idx, emb, 3, zap.NewNop())

	if _, err := s.Retrieve(context.Background(), "anything", 7); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if idx.gotK != 7 {
		t.Errorf("search depth = %d, want 7", idx.gotK)
	}
}
