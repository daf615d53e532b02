package vector

import "fmt"

// IndexType represents the type of vector index to build.
type IndexType string

const (
	// IndexTypeHNSW builds a pure Go HNSW graph. Default.
	IndexTypeHNSW IndexType = "hnsw"
	// IndexTypeMemory uses exact brute-force search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses FAISS IndexHNSWFlat. Requires the FAISS library and -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// Build creates an index of the given type over vectors.
// Supported types: "hnsw" (default), "memory", "faiss".
func Build(indexType string, params HNSWParams, vectors [][]float32) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeHNSW, "":
		return NewHNSWIndex(vectors, params)
	case IndexTypeMemory:
		return NewMemoryIndex(vectors)
	case IndexTypeFAISS:
		return NewFAISSIndex(vectors, params)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: hnsw, memory, faiss)", indexType)
	}
}

// ValidType reports whether indexType names a known index type.
func ValidType(indexType string) bool {
	switch IndexType(indexType) {
	case IndexTypeHNSW, IndexTypeMemory, IndexTypeFAISS, "":
		return true
	}
	return false
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex([][]float32{{0}}, DefaultHNSWParams())
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
