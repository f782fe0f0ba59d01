package rag

import (
	"context"
	"fmt"
)

// Chunk types as stored in the collection.
const (
	ChunkTypeMasaleh = "masaleh" // a numbered ruling (masaleh)
	ChunkTypeNormal  = "normal"  // unnumbered explanatory text
	ChunkTypePDF     = "pdf"     // page-derived chunk from a PDF source
)

// UnnumberedProblem marks chunks that carry no ruling number. Such chunks
// are never cited directly; they only provide surrounding context.
const UnnumberedProblem int64 = -1

// Chunk is one retrievable unit of corpus text with its metadata.
// Chunks are created at ingest time and are read-only afterwards; identity
// is (Source, ChunkIndex) for the lifetime of an ingested document version.
type Chunk struct {
	Source        string `json:"source"`
	ChunkIndex    int64  `json:"chunk_index"`
	Text          string `json:"text"`     // searchable representation with header enrichment
	RawText       string `json:"raw_text"` // the ruling text as written
	ProblemNumber int64  `json:"problem_number"`
	Section       string `json:"section"`
	Subsection    string `json:"subsection"`
	Sub2          string `json:"sub2"`
	SectionPath   string `json:"section_path"`
	Keywords      string `json:"keywords"` // comma-joined, ranked
	ChunkType     string `json:"chunk_type"`
}

// Key returns the deduplication identity of the chunk.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s/%d", c.Source, c.ChunkIndex)
}

// ScoredChunk pairs a chunk with its cosine distance from a query vector.
// Similarity is derived by the caller as 1 - Distance.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float32
}

// QueryFilter restricts a store query to exact metadata matches.
// Zero-valued fields are ignored.
type QueryFilter struct {
	Section       string
	ProblemNumber *int64
}

// ChunkStore defines the vector index holding embedded corpus chunks.
// Implementations must support similarity search, exact-filter lookup and
// deletion by source document.
type ChunkStore interface {
	// Insert adds chunks with their embedding vectors, one vector per chunk.
	Insert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// SimilarityQuery performs top-K nearest-neighbour search, optionally
	// constrained by an equality filter.
	SimilarityQuery(ctx context.Context, vector []float32, topK int, filter *QueryFilter) ([]ScoredChunk, error)

	// ExactQuery returns all chunks matching the equality filter.
	ExactQuery(ctx context.Context, filter *QueryFilter) ([]Chunk, error)

	// DeleteBySource removes every chunk ingested from the given source document.
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the number of chunks in the collection.
	Count(ctx context.Context) (int64, error)

	// Close releases resources and closes connections.
	Close() error
}
