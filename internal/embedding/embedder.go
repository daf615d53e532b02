// Package embedding turns text into dense vectors: a deterministic hashing embedder,
// an ONNX model runner, an OpenAI-compatible API client and an LRU caching decorator.
package embedding

import (
	"context"
)

// Embedder produces vector embeddings for text. Implementations must be deterministic
// for a fixed model and return EmbedBatch results in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// embedEach implements EmbedBatch on top of Embed.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
