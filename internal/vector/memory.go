package vector

import (
	"context"
	"fmt"
	"math"
)

// MemoryIndex is an exact brute-force L2 index. Suitable for tests, for cross-checking
// the HNSW graph and for very small document sets.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
}

// NewMemoryIndex builds an exact index over vectors. An empty batch yields an empty index.
func NewMemoryIndex(vectors [][]float32) (*MemoryIndex, error) {
	dim, err := checkDimensions(vectors)
	if err != nil {
		return nil, fmt.Errorf("memory index: %w", err)
	}
	return &MemoryIndex{
		dimensions: dim,
		vectors:    copyVectors(vectors),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Search returns the k nearest vectors by Euclidean distance.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if k <= 0 || len(m.vectors) == 0 {
		return nil, nil
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("memory index: %w: got %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	scored := make([]candidate, len(m.vectors))
	for i, vec := range m.vectors {
		scored[i] = candidate{id: i, dist: SquaredL2(query, vec)}
	}
	sortCandidates(scored)
	scored = closest(scored, k)
	out := make([]Neighbor, len(scored))
	for i, c := range scored {
		out[i] = Neighbor{ID: c.id, Distance: math.Sqrt(c.dist)}
	}
	return out, nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	return len(m.vectors)
}

// Dimensions returns the vector dimension, 0 for an empty index.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
