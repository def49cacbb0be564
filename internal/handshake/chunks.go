package handshake

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MidOSresearch/midos-mcp/internal/search"
)

const (
	// minChunkScore filters weak semantic matches from the handshake.
	minChunkScore = 0.25

	// minKeywordHits is the fallback's meaningful-word threshold.
	minKeywordHits = 2

	// maxRankedChunks bounds the chunk recommendation list.
	maxRankedChunks = 5

	// maxFallbackFiles caps how many chunk files the fallback scans.
	maxFallbackFiles = 50
)

// genericGoals are project goals too vague to retrieve anything useful
// for.
var genericGoals = map[string]bool{
	"test":    true,
	"testing": true,
	"hello":   true,
	"demo":    true,
	"example": true,
	"prueba":  true,
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "of": true, "with": true, "and": true, "or": true,
	"is": true, "it": true, "my": true, "i": true, "we": true, "our": true,
	"how": true, "what": true, "this": true, "that": true, "using": true,
	"implement": true, "implementation": true, "build": true, "create": true,
	"add": true, "use": true, "make": true, "setup": true,
}

// RankedChunk is one knowledge chunk matched to the project goal.
type RankedChunk struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Preview string  `json:"preview"`
	Score   float64 `json:"score"`
}

// rankChunks retrieves knowledge chunks for the project goal: hybrid
// search when the engine is wired, otherwise a strict keyword scan over
// the chunks directory. Generic test goals return nothing.
func (e *Engine) rankChunks(ctx context.Context, goal string) []RankedChunk {
	if goal == "" {
		return nil
	}
	goalLower := strings.ToLower(goal)
	for g := range genericGoals {
		if goalLower == g || strings.HasPrefix(goalLower, g) {
			return nil
		}
	}

	if e.search != nil {
		results := e.search.Search(ctx, goal, search.Options{
			TopK: maxRankedChunks, Mode: search.ModeHybrid, Alpha: -1,
		})
		var chunks []RankedChunk
		for _, r := range results {
			if r.Score < minChunkScore {
				continue
			}
			preview := r.Text
			if len(preview) > 300 {
				preview = preview[:300]
			}
			chunks = append(chunks, RankedChunk{
				Name:    r.Source,
				Path:    r.Source,
				Preview: preview,
				Score:   r.Score,
			})
		}
		if len(chunks) > 0 {
			return chunks
		}
	}

	return e.keywordChunks(goalLower)
}

// keywordChunks is the filesystem fallback: chunk filenames must hit at
// least two meaningful goal words.
func (e *Engine) keywordChunks(goalLower string) []RankedChunk {
	var goalWords []string
	for _, w := range strings.Fields(goalLower) {
		if !stopWords[w] && len(w) > 2 {
			goalWords = append(goalWords, w)
		}
	}
	if len(goalWords) == 0 {
		return nil
	}

	entries, err := os.ReadDir(e.paths.ChunksDir)
	if err != nil {
		return nil
	}

	var chunks []RankedChunk
	scanned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if scanned++; scanned > maxFallbackFiles {
			break
		}

		stem := strings.TrimSuffix(entry.Name(), ".md")
		nameWords := normalizeName(stem)
		hits := 0
		for _, w := range goalWords {
			if strings.Contains(nameWords, w) {
				hits++
			}
		}
		if hits < minKeywordHits {
			continue
		}

		path := filepath.Join(e.paths.ChunksDir, entry.Name())
		preview := ""
		if data, err := os.ReadFile(path); err == nil {
			preview = string(data)
			if len(preview) > 300 {
				preview = preview[:300]
			}
		}
		chunks = append(chunks, RankedChunk{
			Name:    stem,
			Path:    relToRoot(e.paths.Root, path),
			Preview: preview,
			Score:   float64(hits),
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if len(chunks) > maxRankedChunks {
		chunks = chunks[:maxRankedChunks]
	}
	return chunks
}
