//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/index_factory_c.h>
#include <faiss/c_api/AutoTune_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unsafe"
)

// FAISSIndex wraps a FAISS IndexHNSWFlat with the L2 metric. Connections and
// ef_search are taken from HNSWParams. The C API exposes no efConstruction setter,
// so FAISS builds with its own default of 40 (DefaultEfConstruction).
type FAISSIndex struct {
	index      *C.FaissIndex
	dimensions int
	size       int
	mu         sync.Mutex
}

// NewFAISSIndex builds a FAISS HNSW index over vectors.
func NewFAISSIndex(vectors [][]float32, params HNSWParams) (*FAISSIndex, error) {
	params = params.withDefaults()
	dim, err := checkDimensions(vectors)
	if err != nil {
		return nil, fmt.Errorf("faiss: %w", err)
	}
	f := &FAISSIndex{dimensions: dim, size: len(vectors)}
	if len(vectors) == 0 {
		return f, nil
	}

	desc := C.CString(fmt.Sprintf("HNSW%d,Flat", params.Connections))
	defer C.free(unsafe.Pointer(desc))
	if ret := C.faiss_index_factory(&f.index, C.int(dim), desc, C.METRIC_L2); ret != 0 {
		return nil, fmt.Errorf("faiss: create index: %s", faissLastError())
	}

	var ps *C.FaissParameterSpace
	if ret := C.faiss_ParameterSpace_new(&ps); ret != 0 {
		C.faiss_Index_free(f.index)
		return nil, fmt.Errorf("faiss: parameter space: %s", faissLastError())
	}
	defer C.faiss_ParameterSpace_free(ps)
	name := C.CString("efSearch")
	defer C.free(unsafe.Pointer(name))
	if ret := C.faiss_ParameterSpace_set_index_parameter(ps, f.index, name, C.double(params.EfSearch)); ret != 0 {
		C.faiss_Index_free(f.index)
		return nil, fmt.Errorf("faiss: set efSearch: %s", faissLastError())
	}

	flat := make([]float32, len(vectors)*dim)
	for i, vec := range vectors {
		copy(flat[i*dim:(i+1)*dim], vec)
	}
	if ret := C.faiss_Index_add(f.index, C.idx_t(len(vectors)), (*C.float)(unsafe.Pointer(&flat[0]))); ret != 0 {
		C.faiss_Index_free(f.index)
		return nil, fmt.Errorf("faiss: add vectors: %s", faissLastError())
	}
	return f, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Search returns up to k nearest neighbors. FAISS reports squared L2 distances,
// which are converted to Euclidean distances here.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if k <= 0 || f.size == 0 {
		return nil, nil
	}
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("faiss: %w: got %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index == nil {
		return nil, fmt.Errorf("faiss: index closed")
	}

	if k > f.size {
		k = f.size
	}
	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("faiss: search: %s", faissLastError())
	}

	out := make([]Neighbor, 0, k)
	for i := 0; i < k; i++ {
		if labels[i] < 0 {
			continue
		}
		d := float64(distances[i])
		if d < 0 {
			d = 0
		}
		out = append(out, Neighbor{ID: int(labels[i]), Distance: math.Sqrt(d)})
	}
	return out, nil
}

// Size returns the number of indexed vectors.
func (f *FAISSIndex) Size() int {
	return f.size
}

// Dimensions returns the vector dimension.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
