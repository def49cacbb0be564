package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
)

// bm25Index wraps an in-memory Bleve index over chunk text. It is built
// lazily on the first keyword search and kept in sync by Store.Add.
type bm25Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// bleveDocument is the indexed shape. Only text is searched; the chunk id
// is the document id.
type bleveDocument struct {
	Content string `json:"content"`
}

func newBM25Index() (*bm25Index, error) {
	// The standard analyzer (unicode tokenizer + lowercase + english
	// stop words) fits the prose-heavy knowledge corpus.
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &bm25Index{index: idx}, nil
}

// indexChunks adds chunks in one batch.
func (b *bm25Index) indexChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	for _, c := range chunks {
		doc := bleveDocument{Content: c.Text}
		if err := batch.Index(strconv.FormatInt(c.ID, 10), doc); err != nil {
			return fmt.Errorf("index chunk %d: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	return nil
}

// search returns chunks matching the query, scored by BM25.
func (b *bm25Index) search(ctx context.Context, queryStr string, limit int) ([]KeywordResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if strings.TrimSpace(queryStr) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.IncludeLocations = true

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	results := make([]KeywordResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		results = append(results, KeywordResult{
			ChunkID:      id,
			Score:        hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}
	return results, nil
}

func (b *bm25Index) delete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(strconv.FormatInt(id, 10))
	}
	return b.index.Batch(batch)
}

func (b *bm25Index) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// extractMatchedTerms pulls the matched query terms from hit locations.
func extractMatchedTerms(hit *search.DocumentMatch) []string {
	if len(hit.Locations) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, fieldLocations := range hit.Locations {
		for term := range fieldLocations {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				terms = append(terms, term)
			}
		}
	}
	return terms
}
