// Package index implements exact nearest-neighbour search by inner product
// over L2-normalized vectors.
package index

import (
	"fmt"
	"sort"
)

// Hit is one search result. Position is the vector's insertion order.
type Hit struct {
	Position int
	Score    float64
}

// Index is immutable after New and safe for concurrent Search.
type Index struct {
	dim  int
	rows [][]float32
}

// New normalizes and stores vectors in order. Every vector must have length
// dim.
func New(dim int, vectors [][]float32) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d: %w: want %d, got %d", i, ErrVectorLengthMismatch, dim, len(v))
		}
		rows[i] = NormalizeL2(v)
	}
	return &Index{dim: dim, rows: rows}, nil
}

func (ix *Index) Len() int {
	return len(ix.rows)
}

func (ix *Index) Dim() int {
	return ix.dim
}

// Vector returns a copy of the stored normalized vector at pos.
func (ix *Index) Vector(pos int) []float32 {
	out := make([]float32, ix.dim)
	copy(out, ix.rows[pos])
	return out
}

// Search returns up to k hits ordered by descending score. Equal scores keep
// insertion order. The query is normalized on a private copy.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query: %w: want %d, got %d", ErrVectorLengthMismatch, ix.dim, len(query))
	}
	if k <= 0 || len(ix.rows) == 0 {
		return []Hit{}, nil
	}

	q := NormalizeL2(query)
	hits := make([]Hit, len(ix.rows))
	for i, row := range ix.rows {
		score, _ := Dot(q, row)
		hits[i] = Hit{Position: i, Score: score}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
