package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MidOSresearch/midos-mcp/internal/embed"
	"github.com/MidOSresearch/midos-mcp/internal/store"
)

// resultCacheSize bounds the fused-result cache; entries also expire on
// the configured TTL.
const resultCacheSize = 256

// Engine runs searches over a Store, embedding queries through an
// optional Embedder. A nil embedder degrades every search to keyword
// only; it never makes a call fail.
type Engine struct {
	store    *store.Store
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger

	resultCache *expirable.LRU[string, []Result]
	queryCache  *expirable.LRU[string, []float32]
}

// NewEngine wires a search engine over st. embedder may be nil.
func NewEngine(st *store.Store, embedder embed.Embedder, cfg Config, logger *slog.Logger) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("search engine requires a store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = def.Alpha
	}
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = def.RRFConstant
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = def.ResultCacheTTL
	}
	if cfg.QueryCacheSize <= 0 {
		cfg.QueryCacheSize = def.QueryCacheSize
	}
	if cfg.QueryCacheTTL <= 0 {
		cfg.QueryCacheTTL = def.QueryCacheTTL
	}

	return &Engine{
		store:       st,
		embedder:    embedder,
		cfg:         cfg,
		logger:      logger,
		resultCache: expirable.NewLRU[string, []Result](resultCacheSize, nil, cfg.ResultCacheTTL),
		queryCache:  expirable.NewLRU[string, []float32](cfg.QueryCacheSize, nil, cfg.QueryCacheTTL),
	}, nil
}

// Store exposes the underlying chunk store for lifecycle operations.
func (e *Engine) Store() *store.Store { return e.store }

// cacheKey fingerprints a query plus its options.
func cacheKey(query string, opts Options) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s:%t:%.3f",
		query, opts.TopK, opts.Mode, opts.Rerank, opts.Alpha))
	return hex.EncodeToString(sum[:])[:16]
}

// Search runs the retrieval pipeline. It degrades instead of failing:
// a missing embedder, a broken index, or an embedding outage narrows
// the result set, possibly to empty, but never raises.
func (e *Engine) Search(ctx context.Context, query string, opts Options) []Result {
	if query == "" {
		return nil
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	switch opts.Mode {
	case ModeVector, ModeKeyword, ModeHybrid:
	default:
		opts.Mode = ModeHybrid
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		opts.Alpha = e.cfg.Alpha
	}

	key := cacheKey(query, opts)
	if cached, ok := e.resultCache.Get(key); ok {
		return cached
	}

	expanded := ExpandQuery(query)
	retrieveK := opts.TopK * retrieveMultiplier
	if retrieveK > retrieveCap {
		retrieveK = retrieveCap
	}

	var vectorLeg, keywordLeg []store.Chunk
	if opts.Mode == ModeVector || opts.Mode == ModeHybrid {
		vectorLeg = e.vectorLeg(ctx, expanded, retrieveK)
	}
	if opts.Mode == ModeKeyword || opts.Mode == ModeHybrid {
		keywordLeg = e.keywordLeg(ctx, expanded, retrieveK)
	}

	var candidates []store.Chunk
	switch {
	case opts.Mode == ModeHybrid && len(vectorLeg) > 0 && len(keywordLeg) > 0:
		candidates = fuseRRF(vectorLeg, keywordLeg, opts.Alpha, e.cfg.RRFConstant)
	case len(vectorLeg) > 0:
		candidates = vectorLeg
	default:
		candidates = keywordLeg
	}

	var rerankScores []float64
	if opts.Rerank && len(candidates) > 0 {
		candidates, rerankScores = rerank(query, candidates)
	}

	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		score := 1.0 / float64(i+2)
		if rerankScores != nil {
			score = rerankScores[i]
		}
		results[i] = Result{
			Text:       c.Text,
			Source:     c.Source,
			Score:      score,
			Timestamp:  c.Timestamp,
			Metadata:   c.Metadata,
			SearchMode: opts.Mode,
		}
	}

	e.resultCache.Add(key, results)
	return results
}

// vectorLeg embeds the query and runs ANN retrieval. Any failure logs
// and returns nil so the keyword leg can carry the search.
func (e *Engine) vectorLeg(ctx context.Context, query string, k int) []store.Chunk {
	vec := e.embedQuery(ctx, query)
	if vec == nil {
		return nil
	}

	hits, err := e.store.VectorSearch(ctx, vec, k)
	if err != nil {
		e.logger.Warn("vector search failed", slog.String("error", err.Error()))
		return nil
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := e.store.Get(ctx, ids)
	if err != nil {
		e.logger.Warn("chunk fetch failed", slog.String("error", err.Error()))
		return nil
	}

	live := chunks[:0]
	for _, c := range chunks {
		if !c.Archived() {
			live = append(live, c)
		}
	}
	return live
}

// keywordLeg runs BM25 retrieval.
func (e *Engine) keywordLeg(ctx context.Context, query string, k int) []store.Chunk {
	hits, err := e.store.KeywordSearch(ctx, query, k)
	if err != nil {
		e.logger.Warn("keyword search failed", slog.String("error", err.Error()))
		return nil
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := e.store.Get(ctx, ids)
	if err != nil {
		e.logger.Warn("chunk fetch failed", slog.String("error", err.Error()))
		return nil
	}

	live := chunks[:0]
	for _, c := range chunks {
		if !c.Archived() {
			live = append(live, c)
		}
	}
	return live
}

// embedQuery returns a cached or freshly generated query embedding, or
// nil when no embedder is available or the provider fails.
func (e *Engine) embedQuery(ctx context.Context, query string) []float32 {
	if e.embedder == nil {
		return nil
	}
	if vec, ok := e.queryCache.Get(query); ok {
		return vec
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed", slog.String("error", err.Error()))
		return nil
	}
	e.queryCache.Add(query, vec)
	return vec
}

// Add embeds and persists new chunks. Texts whose embedding fails are
// stored without vectors and remain reachable through keyword search.
func (e *Engine) Add(ctx context.Context, items []IngestItem) ([]int64, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	if e.embedder != nil {
		texts := make([]string, len(items))
		for i, it := range items {
			texts[i] = it.Text
		}
		var err error
		vectors, err = e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			e.logger.Warn("ingest embedding failed, storing without vectors",
				slog.String("error", err.Error()))
			vectors = nil
		}
	}

	chunks := make([]store.Chunk, len(items))
	for i, it := range items {
		chunks[i] = store.Chunk{
			Text:     it.Text,
			Source:   it.Source,
			Metadata: it.Metadata,
		}
		if i < len(vectors) {
			chunks[i].Vector = vectors[i]
		}
	}

	if err := e.store.Add(ctx, chunks); err != nil {
		return nil, err
	}

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids, nil
}
