// Package keyword provides the lexical side of answer verification: tokenizers and
// keyword overlap scorers over the question, the retrieved documents and the response.
package keyword

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

// Analyzer names accepted by NewTokenizer.
const (
	AnalyzerWhitespace = "whitespace"
	AnalyzerStandard   = standard.Name
	AnalyzerSimple     = simple.Name
	AnalyzerEnglish    = en.AnalyzerName
)

// Tokenizer splits text into comparable terms.
type Tokenizer interface {
	Tokens(text string) []string
}

// WhitespaceTokenizer lower-cases text and splits it on whitespace. Punctuation stays
// attached to words, so "Paris." and "paris" are different terms.
type WhitespaceTokenizer struct{}

// Tokens returns the lower-cased whitespace-separated words of text.
func (WhitespaceTokenizer) Tokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// AnalyzerTokenizer runs a Bleve analyzer (tokenization, lower-casing, stop words,
// stemming depending on the analyzer) and returns the resulting terms.
type AnalyzerTokenizer struct {
	name    string
	analyze func([]byte) analysis.TokenStream
}

// NewAnalyzerTokenizer looks up a Bleve analyzer by name ("standard", "simple", "en").
func NewAnalyzerTokenizer(name string) (*AnalyzerTokenizer, error) {
	a := bleve.NewIndexMapping().AnalyzerNamed(name)
	if a == nil {
		return nil, fmt.Errorf("unknown analyzer: %s", name)
	}
	return &AnalyzerTokenizer{name: name, analyze: a.Analyze}, nil
}

// Name returns the analyzer name.
func (t *AnalyzerTokenizer) Name() string {
	return t.name
}

// Tokens returns the analyzed terms of text in order.
func (t *AnalyzerTokenizer) Tokens(text string) []string {
	stream := t.analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) > 0 {
			terms = append(terms, string(tok.Term))
		}
	}
	return terms
}

// NewTokenizer returns the whitespace tokenizer for "" or "whitespace", otherwise a Bleve
// analyzer tokenizer.
func NewTokenizer(analyzer string) (Tokenizer, error) {
	if analyzer == "" || analyzer == AnalyzerWhitespace {
		return WhitespaceTokenizer{}, nil
	}
	return NewAnalyzerTokenizer(analyzer)
}

// termSet returns the distinct tokens of texts.
func termSet(tok Tokenizer, texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, term := range tok.Tokens(text) {
			set[term] = struct{}{}
		}
	}
	return set
}
