//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

var errFAISSUnavailable = errors.New("faiss index unavailable: build with CGO_ENABLED=1 -tags=faiss and install the FAISS library")

// FAISSIndex is the placeholder used when the binary is built without FAISS.
type FAISSIndex struct{}

// NewFAISSIndex always fails without FAISS.
func NewFAISSIndex([][]float32, HNSWParams) (*FAISSIndex, error) {
	return nil, errFAISSUnavailable
}

func (f *FAISSIndex) Search(context.Context, []float32, int) ([]Neighbor, error) {
	return nil, errFAISSUnavailable
}

func (f *FAISSIndex) Size() int       { return 0 }
func (f *FAISSIndex) Dimensions() int { return 0 }
func (f *FAISSIndex) Close() error    { return nil }

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
