package verify

import (
	"fmt"
	"math"
)

// Issue messages, one per score, in check order.
const (
	IssueLowAccuracy           = "Low accuracy: Response may not accurately reflect retrieved information"
	IssueLowConsistency        = "Low consistency: Response may contradict retrieved information"
	IssueLowRelevance          = "Low relevance: Response may not directly answer the question"
	IssueLowSemanticSimilarity = "Low semantic similarity: Response may differ significantly from expected content"
)

// DefaultThreshold applies to every score unless configured otherwise.
const DefaultThreshold = 0.5

// Thresholds are the per-score lower bounds below which an issue is reported.
type Thresholds struct {
	Accuracy           float64 `json:"accuracy" yaml:"accuracy"`
	Consistency        float64 `json:"consistency" yaml:"consistency"`
	Relevance          float64 `json:"relevance" yaml:"relevance"`
	SemanticSimilarity float64 `json:"semantic_similarity" yaml:"semantic_similarity"`
}

// DefaultThresholds returns 0.5 for every score.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Accuracy:           DefaultThreshold,
		Consistency:        DefaultThreshold,
		Relevance:          DefaultThreshold,
		SemanticSimilarity: DefaultThreshold,
	}
}

// Validate checks that every threshold lies in [0,1].
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"accuracy":            t.Accuracy,
		"consistency":         t.Consistency,
		"relevance":           t.Relevance,
		"semantic_similarity": t.SemanticSimilarity,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("threshold %s must be in [0,1], got %v", name, v)
		}
	}
	return nil
}

// Similarity maps an L2 distance to (0,1]: 1/(1+d). Negative and NaN distances count as 0.
func Similarity(distance float64) float64 {
	if math.IsNaN(distance) || distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// Confidence is 1 - σ/μ over the scores (population standard deviation), clamped to
// [0,1]. It is 0 when the mean is not positive or no scores are given.
func Confidence(scores ...float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	if mean <= 0 {
		return 0
	}
	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))
	return clamp01(1 - math.Sqrt(variance)/mean)
}

// DetectIssues reports every score strictly below its threshold, in the order
// accuracy, consistency, relevance, semantic similarity.
func DetectIssues(accuracy, consistency, relevance, semanticSimilarity float64, t Thresholds) []string {
	issues := []string{}
	if accuracy < t.Accuracy {
		issues = append(issues, IssueLowAccuracy)
	}
	if consistency < t.Consistency {
		issues = append(issues, IssueLowConsistency)
	}
	if relevance < t.Relevance {
		issues = append(issues, IssueLowRelevance)
	}
	if semanticSimilarity < t.SemanticSimilarity {
		issues = append(issues, IssueLowSemanticSimilarity)
	}
	return issues
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
