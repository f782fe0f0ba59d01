package retriever

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/resaleh-labs/resaleh/internal/llm"
	"github.com/resaleh-labs/resaleh/internal/rag"
	"github.com/resaleh-labs/resaleh/internal/session"
)

// mockEmbedder returns a fixed small vector for any text and records calls.
type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]rag.EmbeddingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.texts = append(m.texts, texts...)

	records := make([]rag.EmbeddingRecord, len(texts))
	for i, t := range texts {
		records[i] = rag.EmbeddingRecord{Text: t, Embedding: []float32{0.1, 0.2, 0.3}, Index: i}
	}
	return records, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// mockStore is a scriptable ChunkStore. Similarity results are consumed one
// slice per query; when the script runs out the last entry repeats.
type mockStore struct {
	mu sync.Mutex

	count    int64
	countErr error

	exact    map[int64][]rag.Chunk
	exactErr error

	simResults [][]rag.ScoredChunk
	simErr     error

	simCalls   int
	simFilters []*rag.QueryFilter
	exactCalls int
}

func (m *mockStore) Insert(ctx context.Context, chunks []rag.Chunk, embeddings [][]float32) error {
	return errors.New("not implemented")
}

func (m *mockStore) SimilarityQuery(ctx context.Context, vector []float32, topK int, filter *rag.QueryFilter) ([]rag.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.simCalls++
	m.simFilters = append(m.simFilters, filter)

	if m.simErr != nil {
		return nil, m.simErr
	}
	if len(m.simResults) == 0 {
		return nil, nil
	}
	idx := m.simCalls - 1
	if idx >= len(m.simResults) {
		idx = len(m.simResults) - 1
	}
	return m.simResults[idx], nil
}

func (m *mockStore) ExactQuery(ctx context.Context, filter *rag.QueryFilter) ([]rag.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exactCalls++
	if m.exactErr != nil {
		return nil, m.exactErr
	}
	if filter == nil || filter.ProblemNumber == nil {
		return nil, nil
	}
	return m.exact[*filter.ProblemNumber], nil
}

func (m *mockStore) DeleteBySource(ctx context.Context, source string) error { return nil }

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) similarityCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simCalls
}

// newTestRetriever wires a Retriever over mocks with a fresh memory.
func newTestRetriever(store *mockStore, embedder *mockEmbedder, completer *llm.MockLLM, streamer *llm.MockStreamLLM) *Retriever {
	mem := session.NewDefault()
	r, err := New(store, embedder, completer, streamer, mem, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return r
}

func scored(source string, index int64, problem int64, section string, distance float32) rag.ScoredChunk {
	return rag.ScoredChunk{
		Chunk: rag.Chunk{
			Source:        source,
			ChunkIndex:    index,
			Text:          "متن مسئله",
			ProblemNumber: problem,
			Section:       section,
			SectionPath:   section,
			ChunkType:     rag.ChunkTypeMasaleh,
		},
		Distance: distance,
	}
}

func drain(events <-chan Event) []Event {
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func eventsOfType(events []Event, t EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
