// Package index implements the in-memory vector index with snapshot
// persistence. At portfolio scale a brute-force scan beats any approximate
// structure, so search is a linear pass over all stored vectors.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/adidev/chatbot/internal/domain"
)

// Index stores passages and their embeddings and answers nearest-neighbor
// queries by L2 distance. Reads may run concurrently; insert and save are
// serialized behind the write lock.
type Index struct {
	mu       sync.RWMutex
	dim      int // 0 until the first insert or load establishes it
	passages []domain.Passage
}

// New creates an empty index. Dimensionality is established by the first
// insert or by loading a snapshot.
func New() *Index {
	return &Index{}
}

// Len returns the number of stored passages.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.passages)
}

// Dimension returns the established embedding dimensionality, 0 if none.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// Insert appends passages to the index. All embeddings are validated against
// the established dimensionality before anything is appended, so a failed
// insert leaves the index unchanged.
func (x *Index) Insert(passages []domain.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	if dim == 0 {
		dim = len(passages[0].Embedding)
	}
	for i, p := range passages {
		if len(p.Embedding) == 0 || len(p.Embedding) != dim {
			return fmt.Errorf("passage %d (%s): got %d dimensions, index has %d: %w",
				i, p.Source, len(p.Embedding), dim, domain.ErrDimMismatch)
		}
	}

	x.dim = dim
	x.passages = append(x.passages, passages...)
	return nil
}

// Search returns the k passages closest to the query vector, ascending by
// L2 distance. Ties keep insertion order. An empty index returns an empty
// result, and a dimension mismatch is an error.
func (x *Index) Search(query []float32, k int) ([]domain.ScoredPassage, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.passages) == 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), x.dim, domain.ErrDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredPassage, len(x.passages))
	for i, p := range x.passages {
		scored[i] = domain.ScoredPassage{Passage: p, Distance: l2Distance(query, p.Embedding)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Head returns the first k passages in insertion order with zero distance.
// Used as a degraded retrieval result when the query cannot be embedded.
func (x *Index) Head(k int) []domain.ScoredPassage {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k > len(x.passages) {
		k = len(x.passages)
	}
	if k <= 0 {
		return nil
	}
	head := make([]domain.ScoredPassage, k)
	for i := 0; i < k; i++ {
		head[i] = domain.ScoredPassage{Passage: x.passages[i]}
	}
	return head
}

func l2Distance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
