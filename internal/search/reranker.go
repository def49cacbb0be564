package search

import (
	"sort"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/store"
)

// rerank reorders fused candidates with a lexical heuristic that blends
// the fused rank position with query/document token overlap:
//
//	0.6 * (1 / (rank + 1)) + 0.4 * overlap
//
// Overlap is the fraction of query tokens present in the document's
// leading text. The heuristic stands in when no cross-encoder is
// available; search degrades to it rather than failing.
func rerank(query string, candidates []store.Chunk) ([]store.Chunk, []float64) {
	queryTokens := tokenize(query)

	type scored struct {
		chunk store.Chunk
		score float64
	}
	scoredHits := make([]scored, len(candidates))
	for i, c := range candidates {
		positional := 1.0 / float64(i+2)
		overlap := tokenOverlap(queryTokens, docIdentity(c.Text))
		scoredHits[i] = scored{chunk: c, score: 0.6*positional + 0.4*overlap}
	}

	sort.SliceStable(scoredHits, func(i, j int) bool {
		return scoredHits[i].score > scoredHits[j].score
	})

	chunks := make([]store.Chunk, len(scoredHits))
	scores := make([]float64, len(scoredHits))
	for i, s := range scoredHits {
		chunks[i] = s.chunk
		scores[i] = s.score
	}
	return chunks, scores
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// tokenOverlap is the fraction of query tokens appearing in text.
func tokenOverlap(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	docTokens := make(map[string]struct{})
	for _, t := range tokenize(text) {
		docTokens[t] = struct{}{}
	}
	matched := 0
	for _, t := range queryTokens {
		if _, ok := docTokens[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
