package vector

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestMemoryIndex_Search(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	idx, err := NewMemoryIndex(vecs)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 || idx.Dimensions() != 3 {
		t.Errorf("Size=%d Dimensions=%d, want 3 3", idx.Size(), idx.Dimensions())
	}

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 0 || results[1].ID != 1 {
		t.Errorf("order = %d,%d, want 0,1", results[0].ID, results[1].ID)
	}
	if math.Abs(results[1].Distance-math.Sqrt(0.02)) > 1e-6 {
		t.Errorf("distance = %v, want %v", results[1].Distance, math.Sqrt(0.02))
	}
}

func TestMemoryIndex_KLargerThanSize(t *testing.T) {
	idx, _ := NewMemoryIndex([][]float32{{0, 0}, {1, 1}})
	results, err := idx.Search(context.Background(), []float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestMemoryIndex_TiesBreakByID(t *testing.T) {
	idx, _ := NewMemoryIndex([][]float32{{1, 0}, {0, 1}, {-1, 0}})
	results, _ := idx.Search(context.Background(), []float32{0, 0}, 3)
	for i, r := range results {
		if r.ID != i {
			t.Errorf("rank %d: ID %d, want %d", i, r.ID, i)
		}
	}
}

func TestMemoryIndex_Empty(t *testing.T) {
	idx, err := NewMemoryIndex(nil)
	if err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestMemoryIndex_QueryDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex([][]float32{{1, 0, 0}})
	_, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryIndex_CopiesInput(t *testing.T) {
	vecs := [][]float32{{1, 0}}
	idx, _ := NewMemoryIndex(vecs)
	vecs[0][0] = 100
	results, _ := idx.Search(context.Background(), []float32{1, 0}, 1)
	if results[0].Distance != 0 {
		t.Errorf("index observed caller mutation: distance %v", results[0].Distance)
	}
}
