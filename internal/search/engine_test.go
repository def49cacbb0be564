package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MidOSresearch/midos-mcp/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.Open(t.TempDir(), store.Options{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e, err := NewEngine(st, nil, DefaultConfig(), nil)
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresStore(t *testing.T) {
	_, err := NewEngine(nil, nil, Config{}, nil)
	require.Error(t, err)
}

func TestSearchKeywordOnlyWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	ids, err := e.Add(ctx, []IngestItem{
		{Text: "postgres connection pool exhaustion under load", Source: "runbooks/pg.md"},
		{Text: "redis eviction policy tuning", Source: "runbooks/redis.md"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	results := e.Search(ctx, "postgres pool", Options{TopK: 5, Mode: ModeHybrid, Alpha: -1})
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "postgres")
	assert.Equal(t, "runbooks/pg.md", results[0].Source)
	assert.Equal(t, ModeHybrid, results[0].SearchMode)
	// Positional scoring: rank i scores 1/(i+2).
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
}

func TestSearchNeverRaises(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.Empty(t, e.Search(ctx, "", DefaultOptions()))
	assert.Empty(t, e.Search(ctx, "nothing indexed yet", DefaultOptions()))
	// Vector mode with no embedder yields nothing rather than an error.
	assert.Empty(t, e.Search(ctx, "anything", Options{TopK: 3, Mode: ModeVector}))
}

func TestSearchResultCache(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Add(ctx, []IngestItem{{Text: "cached document about sqlite wal mode"}})
	require.NoError(t, err)

	opts := Options{TopK: 5, Mode: ModeKeyword}
	first := e.Search(ctx, "sqlite wal", opts)
	require.NotEmpty(t, first)

	// A later add is invisible until the cache entry expires.
	_, err = e.Add(ctx, []IngestItem{{Text: "another sqlite wal note"}})
	require.NoError(t, err)
	second := e.Search(ctx, "sqlite wal", opts)
	assert.Equal(t, first, second)
}

func TestCacheKeyDiscriminatesOptions(t *testing.T) {
	base := Options{TopK: 5, Mode: ModeHybrid, Rerank: false, Alpha: 0.5}
	assert.Equal(t, cacheKey("q", base), cacheKey("q", base))
	assert.Len(t, cacheKey("q", base), 16)

	assert.NotEqual(t, cacheKey("q", base), cacheKey("other", base))
	reranked := base
	reranked.Rerank = true
	assert.NotEqual(t, cacheKey("q", base), cacheKey("q", reranked))
	keyword := base
	keyword.Mode = ModeKeyword
	assert.NotEqual(t, cacheKey("q", base), cacheKey("q", keyword))
}

func TestSearchTopKTruncation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	items := make([]IngestItem, 10)
	for i := range items {
		items[i] = IngestItem{Text: "kafka consumer group rebalance scenario " + strings.Repeat("x", i+1)}
	}
	_, err := e.Add(ctx, items)
	require.NoError(t, err)

	results := e.Search(ctx, "kafka rebalance", Options{TopK: 3, Mode: ModeKeyword})
	assert.Len(t, results, 3)
}

func TestFuseRRF(t *testing.T) {
	a := store.Chunk{Text: "chunk shared by both legs"}
	b := store.Chunk{Text: "vector only chunk"}
	c := store.Chunk{Text: "keyword only chunk"}

	fused := fuseRRF([]store.Chunk{a, b}, []store.Chunk{a, c}, 0.5, 60)
	require.Len(t, fused, 3)
	// The doubly ranked chunk accumulates both legs' contributions.
	assert.Equal(t, a.Text, fused[0].Text)
}

func TestFuseRRFAlphaWeighting(t *testing.T) {
	v := store.Chunk{Text: "vector favourite"}
	k := store.Chunk{Text: "keyword favourite"}

	// alpha=1 gives the keyword leg zero weight.
	fused := fuseRRF([]store.Chunk{v}, []store.Chunk{k}, 1.0, 60)
	require.Len(t, fused, 2)
	assert.Equal(t, v.Text, fused[0].Text)

	fused = fuseRRF([]store.Chunk{v}, []store.Chunk{k}, 0.0, 60)
	assert.Equal(t, k.Text, fused[0].Text)
}

func TestFuseRRFIdentityCollapsesLongDuplicates(t *testing.T) {
	long := strings.Repeat("a", 250)
	// Same first 200 chars, different tails: fusion treats them as one doc.
	c1 := store.Chunk{Text: long + "-vector"}
	c2 := store.Chunk{Text: long + "-keyword"}

	fused := fuseRRF([]store.Chunk{c1}, []store.Chunk{c2}, 0.5, 60)
	assert.Len(t, fused, 1)
}

func TestExpandQuery(t *testing.T) {
	// Short trigger queries grow synonyms.
	expanded := ExpandQuery("auth middleware")
	assert.Contains(t, expanded, "JWT")
	assert.True(t, strings.HasPrefix(expanded, "auth middleware "))

	// First trigger wins; only one block is appended.
	assert.Contains(t, ExpandQuery("caching layer"), "memoization")

	// Long queries pass through untouched.
	long := strings.Repeat("authentication deep dive ", 4)
	assert.Equal(t, long, ExpandQuery(long))

	// No trigger, no change.
	assert.Equal(t, "quantum flux", ExpandQuery("quantum flux"))
}

func TestRerankBlendsPositionAndOverlap(t *testing.T) {
	candidates := []store.Chunk{
		{Text: "completely unrelated content"},
		{Text: "jwt token refresh flow"},
	}

	reranked, scores := rerank("jwt token refresh", candidates)
	require.Len(t, reranked, 2)
	require.Len(t, scores, 2)

	// Full overlap at rank 1 beats zero overlap at rank 0:
	// 0.6/3 + 0.4*1 = 0.6 vs 0.6/2 + 0 = 0.3.
	assert.Equal(t, "jwt token refresh flow", reranked[0].Text)
	assert.InDelta(t, 0.6, scores[0], 1e-9)
	assert.InDelta(t, 0.3, scores[1], 1e-9)
}

func TestTokenOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, tokenOverlap(tokenize("a b"), "a b c"), 1e-9)
	assert.InDelta(t, 0.5, tokenOverlap(tokenize("a z"), "a b c"), 1e-9)
	assert.Zero(t, tokenOverlap(nil, "anything"))
}
