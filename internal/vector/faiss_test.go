//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"math"
	"testing"
)

func TestFAISSIndex_Search(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	idx, err := NewFAISSIndex(vecs, DefaultHNSWParams())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if idx.Size() != 3 {
		t.Errorf("Size=%d, want 3", idx.Size())
	}
	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 0 {
		t.Errorf("top result should be 0, got %d", results[0].ID)
	}
	if math.Abs(results[0].Distance) > 1e-6 {
		t.Errorf("distance to self = %v, want 0", results[0].Distance)
	}
	want := math.Sqrt(0.01 + 0.01)
	if math.Abs(results[1].Distance-want) > 1e-4 {
		t.Errorf("distance = %v, want %v (not squared)", results[1].Distance, want)
	}
}

func TestFAISSIndex_Empty(t *testing.T) {
	idx, err := NewFAISSIndex(nil, DefaultHNSWParams())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestFAISSIndex_AgreesWithMemory(t *testing.T) {
	vecs := gridVectors(40, 4)
	fi, err := NewFAISSIndex(vecs, DefaultHNSWParams())
	if err != nil {
		t.Fatal(err)
	}
	defer fi.Close()
	mi, _ := NewMemoryIndex(vecs)

	query := []float32{0.3, 0.7, 0.1, 0.5}
	got, _ := fi.Search(context.Background(), query, 3)
	want, _ := mi.Search(context.Background(), query, 3)
	for i := range want {
		if math.Abs(got[i].Distance-want[i].Distance) > 1e-4 {
			t.Errorf("rank %d: distance %v, want %v", i, got[i].Distance, want[i].Distance)
		}
	}
}
