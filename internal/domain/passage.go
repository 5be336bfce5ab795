package domain

// Passage is a chunk of source-document text plus its embedding.
// Immutable once inserted into the index.
type Passage struct {
	ID         string
	Text       string
	Source     string // source document name, e.g. "resume.pdf"
	ChunkIndex int
	Embedding  []float32
}

// ScoredPassage is a single retrieval hit. Distance is L2 over normalized
// vectors, so smaller is closer.
type ScoredPassage struct {
	Passage  Passage
	Distance float32
}

// Answer is the composed response to a chat query.
type Answer struct {
	Text    string
	Sources []string // deduplicated source document names, retrieval order
}
