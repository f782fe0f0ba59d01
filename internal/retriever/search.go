package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/resaleh-labs/resaleh/internal/rag"
)

// MatchType says how a result was found.
type MatchType string

const (
	MatchExact    MatchType = "exact"    // direct ruling-number lookup
	MatchSemantic MatchType = "semantic" // vector similarity
)

// SearchResult wraps a chunk with its retrieval score.
type SearchResult struct {
	Chunk      rag.Chunk
	Similarity float64 // 1 - cosine distance, in [0,1], rounded to 3 decimals
	MatchType  MatchType

	// RerankScore is assigned only when reranking ran.
	RerankScore float64
	Reranked    bool
}

const (
	similarityThreshold = 0.13
	lastResortThreshold = 0.10
	topKPerQuery        = 12
	maxQueryVariants    = 4
)

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// searchByNumber fetches all chunks carrying the given ruling number via an
// exact-equality filter. Results get similarity 1.0 and exact match type.
// Errors are swallowed: an empty result just falls through to the normal
// pipeline.
func (r *Retriever) searchByNumber(ctx context.Context, num int64) []SearchResult {
	chunks, err := r.store.ExactQuery(ctx, &rag.QueryFilter{ProblemNumber: &num})
	if err != nil {
		r.log.Warn().Err(err).Int64("problem_number", num).Msg("direct lookup failed")
		return nil
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, SearchResult{
			Chunk:      c,
			Similarity: 1.0,
			MatchType:  MatchExact,
		})
	}
	return results
}

// searchSemantic fans out the query variants against the store, each
// independently embedded, and merges results by chunk identity keeping the
// best similarity per chunk. A failing variant is logged and skipped; only
// total failure yields an empty result.
func (r *Retriever) searchSemantic(ctx context.Context, queries []string, n int, sectionFilter string) []SearchResult {
	count, err := r.store.Count(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("chunk count failed")
		return nil
	}
	if count == 0 {
		return nil
	}

	topK := n
	if int64(topK) > count {
		topK = int(count)
	}

	var filter *rag.QueryFilter
	if sectionFilter != "" {
		filter = &rag.QueryFilter{Section: sectionFilter}
	}

	found := make(map[string]SearchResult)

	for _, query := range queries {
		if query == "" {
			continue
		}

		records, err := r.embedder.Embed(ctx, []string{query})
		if err != nil || len(records) == 0 {
			r.log.Warn().Err(err).Str("query", query).Msg("query embedding failed")
			continue
		}

		scored, err := r.store.SimilarityQuery(ctx, records[0].Embedding, topK, filter)
		if err != nil {
			r.log.Warn().Err(err).Str("query", query).Msg("similarity query failed")
			continue
		}

		for _, sc := range scored {
			sim := round3(1 - float64(sc.Distance))
			key := sc.Chunk.Key()
			if prev, ok := found[key]; !ok || prev.Similarity < sim {
				found[key] = SearchResult{
					Chunk:      sc.Chunk,
					Similarity: sim,
					MatchType:  MatchSemantic,
				}
			}
		}
	}

	return sortBySimilarity(found)
}

func sortBySimilarity(found map[string]SearchResult) []SearchResult {
	results := make([]SearchResult, 0, len(found))
	for _, res := range found {
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

// queryVariants builds up to four distinct non-empty query strings from the
// question and its analysis.
func queryVariants(original, normalized string, analysis Analysis) []string {
	candidates := []string{original}
	if normalized != original {
		candidates = append(candidates, normalized)
	}
	candidates = append(candidates, analysis.FormalQuery, analysis.KeywordQuery, analysis.ExpandedQuery)

	seen := make(map[string]bool)
	var queries []string
	for _, q := range candidates {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) == maxQueryVariants {
			break
		}
	}
	return queries
}

// fullSearch runs the complete retrieval pipeline for one question: exact
// lookup, multi-query semantic search with an optional section filter,
// deduplication, threshold filtering and conditional reranking. Exact
// matches always come first in the returned ordering.
func (r *Retriever) fullSearch(ctx context.Context, original, normalized string, analysis Analysis) []SearchResult {
	found := make(map[string]SearchResult)

	// Direct ruling-number lookup merges in ahead of semantic results
	if num, ok := extractFromEither(original, normalized); ok {
		r.log.Info().Int64("problem_number", num).Msg("exact lookup")
		for _, res := range r.searchByNumber(ctx, num) {
			found[res.Chunk.Key()] = res
		}
	}

	queries := queryVariants(original, normalized, analysis)

	// The section hint is only trusted when it names a known section, and an
	// explicit ruling number outside that section's range overrules it
	sectionFilter := ""
	if KnownSection(analysis.Section) {
		sectionFilter = analysis.Section
		if num, ok := extractFromEither(original, normalized); ok {
			if rng, ok := SectionRange(analysis.Section); ok && (num < rng.First || num > rng.Last) {
				r.log.Debug().Int64("problem_number", num).Str("section", analysis.Section).
					Msg("section hint contradicts ruling number, dropping filter")
				sectionFilter = ""
			}
		}
	}

	semantic := r.searchSemantic(ctx, queries, topKPerQuery, sectionFilter)

	// The filter is a ranking aid, never an exclusion: too few hits means
	// re-running unfiltered and unioning under the best-similarity rule
	if sectionFilter != "" && len(semantic) < 3 {
		semantic = append(semantic, r.searchSemantic(ctx, queries, topKPerQuery, "")...)
	}

	for _, res := range semantic {
		key := res.Chunk.Key()
		if prev, ok := found[key]; !ok || (prev.MatchType == MatchSemantic && prev.Similarity < res.Similarity) {
			found[key] = res
		}
	}

	if len(found) == 0 {
		return nil
	}

	chunks := sortBySimilarity(found)

	// Threshold filter; never return a hard empty set if candidates exist
	var filtered []SearchResult
	for _, res := range chunks {
		if res.Similarity >= similarityThreshold {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) == 0 {
		filtered = chunks
		if len(filtered) > 5 {
			filtered = filtered[:5]
		}
	}

	var exact, rest []SearchResult
	for _, res := range filtered {
		if res.MatchType == MatchExact {
			exact = append(exact, res)
		} else {
			rest = append(rest, res)
		}
	}

	if len(exact) > 0 {
		reranked := r.smartRerank(ctx, original, capResults(rest, 8))
		return append(exact, capResults(reranked, 4)...)
	}

	return capResults(r.smartRerank(ctx, original, capResults(filtered, 12)), 8)
}

func extractFromEither(original, normalized string) (int64, bool) {
	if num, ok := ExtractProblemNumber(original); ok {
		return num, true
	}
	return ExtractProblemNumber(normalized)
}

func capResults(results []SearchResult, n int) []SearchResult {
	if len(results) > n {
		return results[:n]
	}
	return results
}
