// Package retriever implements the retrieval and streaming-answer engine
// for the jurisprudence corpus: question normalization, direct
// ruling-number lookup, multi-query semantic search with deduplication,
// conditional reranking, short-term conversation memory and cancellable
// token-streaming answer generation.
package retriever

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/resaleh-labs/resaleh/internal/llm"
	"github.com/resaleh-labs/resaleh/internal/rag"
	"github.com/resaleh-labs/resaleh/internal/session"
)

// Retriever answers natural-language questions against the chunked corpus.
// Safe for concurrent use; per-question state lives on the stack of each
// AnswerQuestionStream invocation, only conversation memory is shared.
type Retriever struct {
	store    rag.ChunkStore
	embedder rag.Embedder
	llm      llm.LLM
	streamer llm.StreamLLM
	memory   *session.Memory
	log      zerolog.Logger
}

// New creates a Retriever over the given collaborators.
func New(
	store rag.ChunkStore,
	embedder rag.Embedder,
	completer llm.LLM,
	streamer llm.StreamLLM,
	memory *session.Memory,
	logger zerolog.Logger,
) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("chunk store cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if completer == nil {
		return nil, fmt.Errorf("LLM cannot be nil")
	}
	if streamer == nil {
		return nil, fmt.Errorf("streaming LLM cannot be nil")
	}
	if memory == nil {
		memory = session.NewDefault()
	}

	return &Retriever{
		store:    store,
		embedder: embedder,
		llm:      completer,
		streamer: streamer,
		memory:   memory,
		log:      logger,
	}, nil
}

// Memory exposes the conversation memory, e.g. for explicit session resets.
func (r *Retriever) Memory() *session.Memory {
	return r.memory
}
