package index

import (
	"errors"
	"testing"

	"github.com/adidev/chatbot/internal/domain"
)

func passage(id, source string, chunk int, embedding ...float32) domain.Passage {
	return domain.Passage{
		ID:         id,
		Text:       "text of " + id,
		Source:     source,
		ChunkIndex: chunk,
		Embedding:  embedding,
	}
}

func TestInsertAndSearch_SinglePassage(t *testing.T) {
	x := New()
	if err := x.Insert([]domain.Passage{passage("a", "resume.pdf", 0, 1, 0)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	for _, k := range []int{1, 3, 100} {
		hits, err := x.Search([]float32{0, 1}, k)
		if err != nil {
			t.Fatalf("Search(k=%d): %v", k, err)
		}
		if len(hits) != 1 {
			t.Fatalf("Search(k=%d): got %d hits, want 1", k, len(hits))
		}
		if hits[0].Passage.ID != "a" {
			t.Errorf("Search(k=%d): got passage %q", k, hits[0].Passage.ID)
		}
	}
}

func TestSearch_AscendingByDistance(t *testing.T) {
	x := New()
	err := x.Insert([]domain.Passage{
		passage("far", "doc.pdf", 0, 0, 1),
		passage("near", "doc.pdf", 1, 1, 0),
		passage("mid", "doc.pdf", 2, 0.7, 0.7),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := x.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []string{"near", "mid", "far"}
	for i, id := range want {
		if hits[i].Passage.ID != id {
			t.Errorf("hit %d = %q, want %q", i, hits[i].Passage.ID, id)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("distances not ascending: %v then %v", hits[i-1].Distance, hits[i].Distance)
		}
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	x := New()
	err := x.Insert([]domain.Passage{
		passage("first", "doc.pdf", 0, 0, 1),
		passage("second", "doc.pdf", 1, 0, 1),
		passage("third", "doc.pdf", 2, 0, 1),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := x.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if hits[i].Passage.ID != id {
			t.Errorf("hit %d = %q, want %q", i, hits[i].Passage.ID, id)
		}
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	x := New()

	hits, err := x.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index", len(hits))
	}
}

func TestInsert_DimensionMismatchIsAtomic(t *testing.T) {
	x := New()
	if err := x.Insert([]domain.Passage{passage("a", "doc.pdf", 0, 1, 0)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := x.Insert([]domain.Passage{
		passage("b", "doc.pdf", 1, 0, 1),
		passage("c", "doc.pdf", 2, 0, 1, 2), // wrong dimensionality
	})
	if !errors.Is(err, domain.ErrDimMismatch) {
		t.Fatalf("got %v, want ErrDimMismatch", err)
	}

	// The valid passage of the failed batch must not have been inserted.
	if x.Len() != 1 {
		t.Errorf("index size = %d after failed insert, want 1", x.Len())
	}
}

func TestInsert_EmptyEmbeddingRejected(t *testing.T) {
	x := New()
	err := x.Insert([]domain.Passage{passage("a", "doc.pdf", 0)})
	if !errors.Is(err, domain.ErrDimMismatch) {
		t.Errorf("got %v, want ErrDimMismatch", err)
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	x := New()
	if err := x.Insert([]domain.Passage{passage("a", "doc.pdf", 0, 1, 0)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := x.Search([]float32{1, 0, 0}, 1)
	if !errors.Is(err, domain.ErrDimMismatch) {
		t.Errorf("got %v, want ErrDimMismatch", err)
	}
}

func TestHead(t *testing.T) {
	x := New()
	err := x.Insert([]domain.Passage{
		passage("a", "doc.pdf", 0, 1, 0),
		passage("b", "doc.pdf", 1, 0, 1),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	head := x.Head(5)
	if len(head) != 2 {
		t.Fatalf("Head(5) = %d passages, want 2", len(head))
	}
	if head[0].Passage.ID != "a" || head[1].Passage.ID != "b" {
		t.Errorf("Head not in insertion order: %q, %q", head[0].Passage.ID, head[1].Passage.ID)
	}

	if got := x.Head(0); got != nil {
		t.Errorf("Head(0) = %v, want nil", got)
	}
	if got := New().Head(3); got != nil {
		t.Errorf("Head on empty index = %v, want nil", got)
	}
}
