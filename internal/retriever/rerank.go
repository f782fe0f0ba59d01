package retriever

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// rerankMinCandidates: with this few candidates ordering barely
	// matters, skip the extra call.
	rerankMinCandidates = 4

	// rerankConfidenceGap: a top hit this far ahead of the runner-up
	// needs no rerank.
	rerankConfidenceGap = 0.15

	rerankMaxCandidates = 8
	rerankSnippetLen    = 250
	rerankDefaultScore  = 5.0
	rerankMaxTokens     = 60
)

// smartRerank reranks only when it is worth a provider call: enough
// candidates and no confidently dominant top hit.
func (r *Retriever) smartRerank(ctx context.Context, question string, results []SearchResult) []SearchResult {
	if len(results) < rerankMinCandidates {
		return results
	}
	if results[0].Similarity-results[1].Similarity > rerankConfidenceGap {
		return capResults(results, 6)
	}
	return r.rerank(ctx, question, capResults(results, rerankMaxCandidates))
}

// rerank asks the model for a comma-separated 0-10 relevance score per
// candidate in input order and resorts by score. Short or malformed score
// lists default missing entries to the midpoint; provider failure returns
// the candidates unchanged.
func (r *Retriever) rerank(ctx context.Context, question string, results []SearchResult) []SearchResult {
	if len(results) <= 2 {
		return results
	}

	var b strings.Builder
	fmt.Fprintf(&b, "سوال: %s\n\n", question)
	b.WriteString("هر متن را از 0 تا 10 بر اساس ارتباط با سوال امتیاز بده.\nفقط اعداد با کاما. مثال: 8,3,10,2,5\n\n")
	for i, res := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, snippet(res.Chunk.Text, rerankSnippetLen))
	}

	out, err := r.llm.Complete(ctx, b.String(), rerankMaxTokens)
	if err != nil {
		r.log.Warn().Err(err).Msg("rerank failed, keeping similarity order")
		return results
	}

	scores := parseScores(out)

	reranked := make([]SearchResult, len(results))
	copy(reranked, results)
	for i := range reranked {
		reranked[i].Reranked = true
		if i < len(scores) {
			reranked[i].RerankScore = scores[i]
		} else {
			reranked[i].RerankScore = rerankDefaultScore
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})
	return reranked
}

// parseScores extracts the comma-separated floats, quietly dropping
// anything unparsable.
func parseScores(s string) []float64 {
	var scores []float64
	for _, part := range strings.Split(strings.TrimSpace(s), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		scores = append(scores, f)
	}
	return scores
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
