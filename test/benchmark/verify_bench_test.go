package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/vector"
	"github.com/hyperjump/ragcheck/internal/verify"
)

func randomVectors(n, dims int) [][]float32 {
	r := rand.New(rand.NewSource(1))
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, dims)
		for j := range vecs[i] {
			vecs[i][j] = r.Float32()
		}
	}
	return vecs
}

func BenchmarkHNSWBuild(b *testing.B) {
	vecs := randomVectors(1000, 384)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx, _ := vector.NewHNSWIndex(vecs, vector.DefaultHNSWParams())
		_ = idx.Close()
	}
}

func BenchmarkIndexSearch(b *testing.B) {
	vecs := randomVectors(1000, 384)
	query := randomVectors(1, 384)[0]
	ctx := context.Background()
	for _, typ := range []vector.IndexType{vector.IndexTypeHNSW, vector.IndexTypeMemory} {
		idx, err := vector.Build(string(typ), vector.DefaultHNSWParams(), vecs)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(string(typ), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = idx.Search(ctx, query, 10)
			}
		})
		_ = idx.Close()
	}
}

func BenchmarkHashingEmbedder_Embed(b *testing.B) {
	e := embedding.NewHashingEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark response text for embedding")
	}
}

func BenchmarkVerify(b *testing.B) {
	v, err := verify.New(embedding.NewHashingEmbedder(384), verify.DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for _, n := range []int{2, 20, 200} {
		docs := make([]string, n)
		for i := range docs {
			docs[i] = fmt.Sprintf("Document %d mentions Paris, the capital of France, and topic %d.", i, i%7)
		}
		vctx := verify.Context{Question: "What is the capital of France?", RetrievedDocs: docs}
		b.Run(fmt.Sprintf("docs=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := v.Verify(ctx, "The capital of France is Paris.", vctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
