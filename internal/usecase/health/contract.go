package health

import "context"

// IndexReader reports knowledge-base state.
type IndexReader interface {
	Len() int
	Dimension() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
