package search

import (
	"sort"

	"github.com/MidOSresearch/midos-mcp/internal/store"
)

// fusedHit tracks one document through rank fusion. Documents are
// identified by a text prefix so the same chunk surfacing in both legs
// accumulates a single score.
type fusedHit struct {
	chunk store.Chunk
	score float64
}

func docIdentity(text string) string {
	if len(text) > docIdentityLen {
		return text[:docIdentityLen]
	}
	return text
}

// fuseRRF merges the vector and keyword legs with alpha-weighted
// reciprocal rank fusion. Ranks are 1-indexed within each leg; the
// vector leg contributes alpha/(rank+K), the keyword leg
// (1-alpha)/(rank+K). Output is ordered best first.
func fuseRRF(vectorLeg, keywordLeg []store.Chunk, alpha float64, k int) []store.Chunk {
	if k <= 0 {
		k = DefaultConfig().RRFConstant
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	hits := make(map[string]*fusedHit, len(vectorLeg)+len(keywordLeg))
	order := make([]string, 0, len(vectorLeg)+len(keywordLeg))

	accumulate := func(leg []store.Chunk, weight float64) {
		for i, c := range leg {
			id := docIdentity(c.Text)
			h, ok := hits[id]
			if !ok {
				h = &fusedHit{chunk: c}
				hits[id] = h
				order = append(order, id)
			}
			h.score += weight / float64(i+1+k)
		}
	}
	accumulate(vectorLeg, alpha)
	accumulate(keywordLeg, 1-alpha)

	// Stable sort over first-seen order keeps ties deterministic.
	fused := make([]*fusedHit, 0, len(order))
	for _, id := range order {
		fused = append(fused, hits[id])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].score > fused[j].score
	})

	out := make([]store.Chunk, len(fused))
	for i, h := range fused {
		out[i] = h.chunk
	}
	return out
}
