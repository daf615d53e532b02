// Package vector provides nearest-neighbor indices over document embeddings.
package vector

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index is a read-only k-nearest-neighbor index built once over a batch of vectors.
// Identifiers are the positions of the vectors in the batch the index was built from.
type Index interface {
	// Search returns up to k neighbors of query ordered by ascending distance.
	// An empty index returns no neighbors and no error.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Neighbor is a single search hit: the position of the indexed vector and its
// Euclidean (L2) distance to the query.
type Neighbor struct {
	ID       int
	Distance float64
}

// HNSWParams tunes graph construction and search. Higher values trade build and
// query cost for recall. Zero Connections, EfConstruction and EfSearch take their
// defaults; Seed is used as given, including 0.
type HNSWParams struct {
	Connections    int   `yaml:"connections" json:"connections"`         // M, links per node on upper layers
	EfConstruction int   `yaml:"ef_construction" json:"ef_construction"` // candidate list size while inserting
	EfSearch       int   `yaml:"ef_search" json:"ef_search"`             // candidate list size while querying
	Seed           int64 `yaml:"seed" json:"seed"`                       // level assignment seed
}

const (
	DefaultConnections    = 32
	DefaultEfConstruction = 40
	DefaultEfSearch       = 16
)

// DefaultHNSWParams returns the default graph parameters.
func DefaultHNSWParams() HNSWParams {
	return HNSWParams{
		Connections:    DefaultConnections,
		EfConstruction: DefaultEfConstruction,
		EfSearch:       DefaultEfSearch,
	}
}

// withDefaults fills zero values with defaults.
func (p HNSWParams) withDefaults() HNSWParams {
	if p.Connections == 0 {
		p.Connections = DefaultConnections
	}
	if p.EfConstruction == 0 {
		p.EfConstruction = DefaultEfConstruction
	}
	if p.EfSearch == 0 {
		p.EfSearch = DefaultEfSearch
	}
	return p
}

// checkDimensions returns the shared dimension of vectors, or an error if they disagree.
func checkDimensions(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, errors.New("vectors must not be empty")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

// copyVectors returns a deep copy so later mutation by the caller cannot affect the index.
func copyVectors(vectors [][]float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
