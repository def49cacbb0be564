// Package search implements the hybrid retrieval pipeline over the chunk
// store: vector + BM25 legs, alpha-weighted reciprocal rank fusion,
// optional reranking, query expansion, and short-TTL result caching.
package search

import "time"

// Mode selects which retrieval legs run.
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeKeyword Mode = "keyword"
	ModeHybrid  Mode = "hybrid"
)

// Retrieval constants.
const (
	// DefaultTopK is the result count when the caller does not specify.
	DefaultTopK = 5

	// retrieveMultiplier and retrieveCap bound the candidate pool
	// fetched per leg before fusion.
	retrieveMultiplier = 3
	retrieveCap        = 30

	// docIdentityLen is how much text identifies a document during
	// fusion; near-duplicate chunks collapse onto one entry.
	docIdentityLen = 200
)

// Options tunes one search call.
type Options struct {
	TopK int
	Mode Mode
	// Rerank enables the post-fusion rerank pass.
	Rerank bool
	// Alpha weights the vector leg in [0,1]; 1-Alpha weights BM25.
	// Negative means "use the engine default".
	Alpha float64
}

// DefaultOptions returns hybrid search with no rerank.
func DefaultOptions() Options {
	return Options{TopK: DefaultTopK, Mode: ModeHybrid, Alpha: -1}
}

// Result is one search hit as seen by tool handlers.
type Result struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Timestamp  int64   `json:"timestamp"`
	Metadata   string  `json:"metadata"`
	SearchMode Mode    `json:"search_mode"`
}

// Config tunes the engine.
type Config struct {
	Alpha          float64
	RRFConstant    int
	ResultCacheTTL time.Duration
	QueryCacheSize int
	QueryCacheTTL  time.Duration
}

// DefaultConfig matches the production defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:          0.5,
		RRFConstant:    60,
		ResultCacheTTL: 60 * time.Second,
		QueryCacheSize: 100,
		QueryCacheTTL:  300 * time.Second,
	}
}

// IngestItem is one chunk to add to the store.
type IngestItem struct {
	Text     string
	Source   string
	Metadata string
}
