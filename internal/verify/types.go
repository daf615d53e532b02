// Package verify scores how faithfully a generated answer reflects the documents
// retrieved for it. Each call embeds the documents, builds its own nearest-neighbor
// index over them, derives four similarity scores and aggregates them into a
// confidence value and a list of issues.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidContext is returned when a required context field is missing.
var ErrInvalidContext = errors.New("invalid verification context")

// Context is the retrieval context an answer is verified against.
type Context struct {
	Question string `json:"question" yaml:"question"`
	// RetrievedDocs is required; nil means absent, an empty slice is a valid empty set.
	RetrievedDocs []string `json:"retrieved_docs" yaml:"retrieved_docs"`
	// ExpectedResponse is the optional gold answer.
	ExpectedResponse *string `json:"expected_response,omitempty" yaml:"expected_response,omitempty"`
}

// Validate checks that the required fields are present.
func (c Context) Validate() error {
	if c.Question == "" {
		return fmt.Errorf("%w: question is required", ErrInvalidContext)
	}
	if c.RetrievedDocs == nil {
		return fmt.Errorf("%w: retrieved_docs is required", ErrInvalidContext)
	}
	return nil
}

// Result is the outcome of one verification.
type Result struct {
	Accuracy           float64  `json:"accuracy"`
	Consistency        float64  `json:"consistency"`
	Relevance          float64  `json:"relevance"`
	SemanticSimilarity float64  `json:"semantic_similarity"`
	Confidence         float64  `json:"confidence"`
	Issues             []string `json:"issues"`
}

// OverallScore is the unweighted mean of the four scores.
func (r Result) OverallScore() float64 {
	return (r.Accuracy + r.Consistency + r.Relevance + r.SemanticSimilarity) / 4
}

// Scores returns the four scores in check order.
func (r Result) Scores() [4]float64 {
	return [4]float64{r.Accuracy, r.Consistency, r.Relevance, r.SemanticSimilarity}
}

// MarshalJSON adds the derived overall_score to the encoded result.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}
	p := plain(r)
	p.Issues = issues
	return json.Marshal(struct {
		plain
		OverallScore float64 `json:"overall_score"`
	}{p, r.OverallScore()})
}
