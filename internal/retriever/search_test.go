package retriever

import (
	"context"
	"testing"

	"github.com/resaleh-labs/resaleh/internal/llm"
	"github.com/resaleh-labs/resaleh/internal/rag"
)

func TestSearchByNumber(t *testing.T) {
	store := &mockStore{
		count: 10,
		exact: map[int64][]rag.Chunk{
			400: {{Source: "resaleh.docx", ChunkIndex: 7, ProblemNumber: 400, Text: "متن مسئله ۴۰۰"}},
		},
	}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.searchByNumber(context.Background(), 400)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Similarity != 1.0 {
		t.Errorf("exact matches carry similarity 1.0, got %v", results[0].Similarity)
	}
	if results[0].MatchType != MatchExact {
		t.Errorf("match type = %q, want %q", results[0].MatchType, MatchExact)
	}

	if got := r.searchByNumber(context.Background(), 999); len(got) != 0 {
		t.Errorf("missing number should yield no results, got %d", len(got))
	}
}

func TestSearchSemanticMergeKeepsBestSimilarity(t *testing.T) {
	// The same chunk comes back from two query variants with different
	// distances; the merged result must keep the better similarity.
	store := &mockStore{
		count: 100,
		simResults: [][]rag.ScoredChunk{
			{
				scored("resaleh.docx", 1, 100, "احکام روزه", 0.40),
				scored("resaleh.docx", 2, 101, "احکام روزه", 0.70),
			},
			{
				scored("resaleh.docx", 1, 100, "احکام روزه", 0.25),
			},
		},
	}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.searchSemantic(context.Background(), []string{"سوال اول", "سوال دوم"}, 12, "")
	if len(results) != 2 {
		t.Fatalf("expected 2 merged results, got %d", len(results))
	}

	// Best first, and chunk 1 keeps its improved 0.75 similarity
	if results[0].Chunk.ChunkIndex != 1 || results[0].Similarity != 0.75 {
		t.Errorf("merge did not keep the best similarity: got chunk %d sim %v",
			results[0].Chunk.ChunkIndex, results[0].Similarity)
	}
	if results[1].Similarity != 0.3 {
		t.Errorf("second result similarity = %v, want 0.3", results[1].Similarity)
	}

	if store.similarityCalls() != 2 {
		t.Errorf("expected one store query per variant, got %d", store.similarityCalls())
	}
}

func TestSearchSemanticEmptyStore(t *testing.T) {
	store := &mockStore{count: 0}
	embedder := &mockEmbedder{}
	r := newTestRetriever(store, embedder, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.searchSemantic(context.Background(), []string{"سوال"}, 12, "")
	if results != nil {
		t.Errorf("empty store must yield nil, got %v", results)
	}
	if embedder.callCount() != 0 {
		t.Error("no embeddings should be requested against an empty store")
	}
}

func TestSearchSemanticVariantWithNoHits(t *testing.T) {
	store := &mockStore{
		count: 100,
		simResults: [][]rag.ScoredChunk{
			nil, // first variant returns nothing
			{scored("resaleh.docx", 3, 500, "وضو", 0.5)},
		},
	}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.searchSemantic(context.Background(), []string{"عبارت اول", "سوال"}, 12, "")
	if len(results) != 1 || results[0].Chunk.ChunkIndex != 3 {
		t.Errorf("surviving variant should still produce results, got %v", results)
	}
}

func TestQueryVariants(t *testing.T) {
	analysis := Analysis{
		FormalQuery:  "حکم دود سیگار برای روزه‌دار",
		KeywordQuery: "سیگار روزه دخان",
	}

	got := queryVariants("سیگار کشیدن چی میشه", "سیگار دود دخان تنباکو حکم چیست", analysis)
	if len(got) != 4 {
		t.Fatalf("expected 4 variants, got %d: %v", len(got), got)
	}
	if got[0] != "سیگار کشیدن چی میشه" {
		t.Errorf("original question must come first, got %q", got[0])
	}

	// Identical normalized form and empty analysis fields collapse
	got = queryVariants("حکم وضو", "حکم وضو", Analysis{})
	if len(got) != 1 || got[0] != "حکم وضو" {
		t.Errorf("duplicates must collapse, got %v", got)
	}

	// The expanded query is a variant of its own when the others collapse
	got = queryVariants("حکم روزه", "حکم روزه", Analysis{
		FormalQuery:   "حکم روزه",
		ExpandedQuery: "حکم روزه روزه صوم صائم",
	})
	if len(got) != 2 || got[1] != "حکم روزه روزه صوم صائم" {
		t.Errorf("expanded query must survive dedup, got %v", got)
	}
}

func TestFullSearchThresholdFallback(t *testing.T) {
	// All similarities below the relevance threshold: the pipeline must
	// still return the best five rather than nothing.
	var weak []rag.ScoredChunk
	for i := int64(0); i < 7; i++ {
		weak = append(weak, scored("resaleh.docx", i, 100+i, "احکام روزه", float32(0.90+float64(i)*0.005)))
	}
	store := &mockStore{count: 100, simResults: [][]rag.ScoredChunk{weak}}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.fullSearch(context.Background(), "سوال کم‌ربط", "سوال کم‌ربط", Analysis{})
	if len(results) != 5 {
		t.Fatalf("threshold fallback should cap at 5, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("fallback results must stay ordered best-first")
		}
	}
}

func TestFullSearchExactFirst(t *testing.T) {
	// A question with an explicit ruling number: exact hits lead the final
	// ordering and semantic hits are capped at four.
	var semantic []rag.ScoredChunk
	for i := int64(10); i < 20; i++ {
		semantic = append(semantic, scored("resaleh.docx", i, 700+i, "احکام نماز", float32(0.3+float64(i-10)*0.01)))
	}
	store := &mockStore{
		count: 100,
		exact: map[int64][]rag.Chunk{
			724: {{Source: "resaleh.docx", ChunkIndex: 1, ProblemNumber: 724, Text: "متن", SectionPath: "احکام نماز"}},
		},
		simResults: [][]rag.ScoredChunk{semantic},
	}
	completer := llm.NewMockLLM("5,5,5,5,5,5,5,5")
	r := newTestRetriever(store, &mockEmbedder{}, completer, &llm.MockStreamLLM{})

	results := r.fullSearch(context.Background(), "مسئله 724 چیست", "مسئله 724 چیست", Analysis{})
	if len(results) == 0 || results[0].MatchType != MatchExact {
		t.Fatalf("exact match must come first, got %+v", results)
	}
	if len(results) > 5 {
		t.Errorf("exact-first shape is 1 exact + at most 4 semantic, got %d", len(results))
	}
	for _, res := range results[1:] {
		if res.MatchType != MatchSemantic {
			t.Errorf("only the lookup hit may be exact, got %+v", res)
		}
	}
}

func TestFullSearchSectionFilterRetry(t *testing.T) {
	// A trusted section hint that yields under three hits triggers an
	// unfiltered second pass.
	store := &mockStore{
		count: 100,
		simResults: [][]rag.ScoredChunk{
			{scored("resaleh.docx", 1, 1700, "احکام روزه", 0.4)},
			{
				scored("resaleh.docx", 1, 1700, "احکام روزه", 0.4),
				scored("resaleh.docx", 2, 800, "احکام نماز", 0.5),
			},
		},
	}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	results := r.fullSearch(context.Background(), "سوال روزه", "سوال روزه", Analysis{Section: "احکام روزه"})
	if len(results) != 2 {
		t.Fatalf("union of filtered and unfiltered passes expected, got %d", len(results))
	}

	if store.simFilters[0] == nil || store.simFilters[0].Section != "احکام روزه" {
		t.Error("first pass should carry the section filter")
	}
	last := store.simFilters[len(store.simFilters)-1]
	if last != nil {
		t.Error("retry pass should be unfiltered")
	}

	// An unknown section hint is never used as a filter
	store2 := &mockStore{count: 100, simResults: [][]rag.ScoredChunk{{scored("resaleh.docx", 1, 1, "وضو", 0.4)}}}
	r2 := newTestRetriever(store2, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})
	r2.fullSearch(context.Background(), "سوال", "سوال", Analysis{Section: "بخش ساختگی"})
	for _, f := range store2.simFilters {
		if f != nil {
			t.Error("unknown section must not be used as a filter")
		}
	}
}

func TestFullSearchSectionNumberMismatchDropsFilter(t *testing.T) {
	// An explicit ruling number outside the hinted section's range wins over
	// the hint: the search runs unfiltered.
	store := &mockStore{
		count:      100,
		simResults: [][]rag.ScoredChunk{{scored("resaleh.docx", 1, 100, "نجاسات", 0.4)}},
	}
	r := newTestRetriever(store, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	r.fullSearch(context.Background(), "مسئله 100 چیست", "مسئله 100 چیست", Analysis{Section: "احکام روزه"})
	for _, f := range store.simFilters {
		if f != nil {
			t.Error("contradicted section hint must not be used as a filter")
		}
	}

	// A number inside the section's range keeps the filter.
	store2 := &mockStore{
		count: 100,
		simResults: [][]rag.ScoredChunk{{
			scored("resaleh.docx", 1, 1700, "احکام روزه", 0.4),
			scored("resaleh.docx", 2, 1701, "احکام روزه", 0.4),
			scored("resaleh.docx", 3, 1702, "احکام روزه", 0.4),
		}},
	}
	r2 := newTestRetriever(store2, &mockEmbedder{}, llm.NewMockLLM(""), &llm.MockStreamLLM{})

	r2.fullSearch(context.Background(), "مسئله 1700 چیست", "مسئله 1700 چیست", Analysis{Section: "احکام روزه"})
	if len(store2.simFilters) == 0 || store2.simFilters[0] == nil || store2.simFilters[0].Section != "احکام روزه" {
		t.Errorf("consistent section hint should filter the first pass, got %+v", store2.simFilters)
	}
}
