package keyword

import "fmt"

// Scorer names accepted by NewScorer.
const (
	ScorerOverlap  = "overlap"
	ScorerWeighted = "weighted"
)

// Scorer rates how much of the question and document vocabulary a response reuses.
type Scorer interface {
	Score(response, question string, docs []string) float64
}

// OverlapScorer scores the share of the reference vocabulary (question plus documents)
// that the response repeats: |T(resp) ∩ (T(q) ∪ T(docs))| / |T(q) ∪ T(docs)|.
type OverlapScorer struct {
	tok Tokenizer
}

// NewOverlapScorer returns an overlap scorer; a nil tokenizer means whitespace.
func NewOverlapScorer(tok Tokenizer) *OverlapScorer {
	if tok == nil {
		tok = WhitespaceTokenizer{}
	}
	return &OverlapScorer{tok: tok}
}

// Score returns the overlap in [0,1], 0 when question and documents have no terms.
func (s *OverlapScorer) Score(response, question string, docs []string) float64 {
	reference := termSet(s.tok, append([]string{question}, docs...)...)
	if len(reference) == 0 {
		return 0
	}
	matched := 0
	for term := range termSet(s.tok, response) {
		if _, ok := reference[term]; ok {
			matched++
		}
	}
	return clamp(float64(matched) / float64(len(reference)))
}

// WeightedScorer weights every reference term by its share of all reference words, so
// frequent terms count more. The score is the total weight of the distinct response
// terms found in the reference.
type WeightedScorer struct {
	tok Tokenizer
}

// NewWeightedScorer returns a weighted scorer; a nil tokenizer means whitespace.
func NewWeightedScorer(tok Tokenizer) *WeightedScorer {
	if tok == nil {
		tok = WhitespaceTokenizer{}
	}
	return &WeightedScorer{tok: tok}
}

// Weights returns term -> count/total over the question and documents.
func (s *WeightedScorer) Weights(question string, docs []string) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, text := range append([]string{question}, docs...) {
		for _, term := range s.tok.Tokens(text) {
			counts[term]++
			total++
		}
	}
	weights := make(map[string]float64, len(counts))
	for term, n := range counts {
		weights[term] = float64(n) / float64(total)
	}
	return weights
}

// Score returns the matched weight in [0,1], 0 when the reference has no words.
func (s *WeightedScorer) Score(response, question string, docs []string) float64 {
	weights := s.Weights(question, docs)
	if len(weights) == 0 {
		return 0
	}
	var matched float64
	for term := range termSet(s.tok, response) {
		matched += weights[term]
	}
	return clamp(matched)
}

// NewScorer builds the scorer named by scorer ("overlap" when empty) over the tokenizer
// named by analyzer.
func NewScorer(scorer, analyzer string) (Scorer, error) {
	tok, err := NewTokenizer(analyzer)
	if err != nil {
		return nil, err
	}
	switch scorer {
	case ScorerOverlap, "":
		return NewOverlapScorer(tok), nil
	case ScorerWeighted:
		return NewWeightedScorer(tok), nil
	default:
		return nil, fmt.Errorf("unknown keyword scorer: %s (supported: overlap, weighted)", scorer)
	}
}

func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
