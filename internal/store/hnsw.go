package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// vectorIndex wraps a coder/hnsw graph keyed by chunk id. Pure Go, no CGO.
type vectorIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	// Chunk id <-> internal key. Lazy deletion orphans graph nodes
	// instead of removing them; deleting the last node corrupts the
	// graph in coder/hnsw.
	idMap   map[int64]uint64
	keyMap  map[uint64]int64
	nextKey uint64
}

// vectorIndexMeta is the gob-persisted sidecar for the graph file.
type vectorIndexMeta struct {
	IDMap      map[int64]uint64
	NextKey    uint64
	Dimensions int
}

func newVectorIndex(dimensions int) *vectorIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &vectorIndex{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[int64]uint64),
		keyMap:     make(map[uint64]int64),
	}
}

// add inserts vectors for chunk ids. Re-adding an id orphans the old node.
func (v *vectorIndex) add(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, vec := range vectors {
		if v.dimensions == 0 {
			v.dimensions = len(vec)
		}
		if len(vec) != v.dimensions {
			return ErrDimensionMismatch{Expected: v.dimensions, Got: len(vec)}
		}
	}

	for i, id := range ids {
		if existingKey, exists := v.idMap[id]; exists {
			delete(v.keyMap, existingKey)
			delete(v.idMap, id)
		}

		key := v.nextKey
		v.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		v.graph.Add(hnsw.MakeNode(key, vec))
		v.idMap[id] = key
		v.keyMap[key] = id
	}

	return nil
}

// search finds the k nearest chunks to the query vector.
func (v *vectorIndex) search(query []float32, k int) ([]VectorResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.graph.Len() == 0 {
		return nil, nil
	}
	if v.dimensions != 0 && len(query) != v.dimensions {
		return nil, ErrDimensionMismatch{Expected: v.dimensions, Got: len(query)}
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVectorInPlace(normalized)

	nodes := v.graph.Search(normalized, k)

	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, ok := v.keyMap[node.Key]
		if !ok {
			// Orphaned by lazy deletion.
			continue
		}
		distance := v.graph.Distance(normalized, node.Value)
		results = append(results, VectorResult{
			ChunkID:  id,
			Distance: distance,
			Score:    1.0 - distance/2.0,
		})
	}

	return results, nil
}

// remove lazily deletes ids from the index.
func (v *vectorIndex) remove(ids []int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, id := range ids {
		if key, exists := v.idMap[id]; exists {
			delete(v.keyMap, key)
			delete(v.idMap, id)
		}
	}
}

func (v *vectorIndex) count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.idMap)
}

// save persists the graph and its id mappings atomically.
func (v *vectorIndex) save(path string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := v.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return v.saveMeta(path + ".meta")
}

func (v *vectorIndex) saveMeta(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create meta file: %w", err)
	}

	meta := vectorIndexMeta{
		IDMap:      v.idMap,
		NextKey:    v.nextKey,
		Dimensions: v.dimensions,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close meta file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// load restores the graph and id mappings from disk.
func (v *vectorIndex) load(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer metaFile.Close()

	var meta vectorIndexMeta
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode meta: %w", err)
	}

	v.idMap = meta.IDMap
	v.nextKey = meta.NextKey
	v.dimensions = meta.Dimensions
	v.keyMap = make(map[uint64]int64, len(meta.IDMap))
	for id, key := range v.idMap {
		v.keyMap[key] = id
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	// coder/hnsw Import requires an io.ByteReader.
	if err := v.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
