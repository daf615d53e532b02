package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/ragcheck/pkg/utils"
)

// DefaultHashingDimensions is the vector size of HashingEmbedder when none is given.
const DefaultHashingDimensions = 384

// HashingEmbedder is a feature-hashing bag-of-words embedder. Each lower-cased word
// (a run of letters or digits) increments one bucket chosen by FNV-1a; the counts are
// L2-normalized. Texts sharing vocabulary land close together, unrelated texts end up
// orthogonal, and no model file is needed.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a hashing embedder with the given number of buckets.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed returns the normalized bucket counts of text. Text without words yields the zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, word := range hashingWords(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		emb[h.Sum32()%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashingEmbedder.
func (e *HashingEmbedder) Close() error {
	return nil
}

func hashingWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
