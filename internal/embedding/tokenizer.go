package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Tokenizer produces BERT-style model inputs (input_ids, attention_mask, token_type_ids),
// each exactly maxTokens long.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	defaultMaxTokens = 256
	simpleVocabSize  = 30000
	maxWordRunes     = 100
)

// Special token IDs of the bert-base-uncased vocabulary.
const (
	padID = 0
	unkID = 100
	clsID = 101
	sepID = 102
)

// VocabFile is the WordPiece vocabulary looked up next to an ONNX model.
const VocabFile = "vocab.txt"

// LoadTokenizer returns a WordPieceTokenizer for the vocab.txt in the model's directory,
// or a SimpleTokenizer when there is none.
func LoadTokenizer(modelPath string) (Tokenizer, error) {
	vocabPath := filepath.Join(filepath.Dir(modelPath), VocabFile)
	tok, err := NewWordPieceTokenizer(vocabPath)
	if errors.Is(err, os.ErrNotExist) {
		return &SimpleTokenizer{}, nil
	}
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// SimpleTokenizer splits text into lower-cased words and hashes each into the vocabulary
// range. It needs no vocabulary file; model quality suffers accordingly.
type SimpleTokenizer struct{}

// Tokenize returns [CLS] word... [SEP] padded or truncated to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := basicTokens(text)
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, int64(HashString(w)%(simpleVocabSize-sepID-1))+sepID+1)
	}
	return encode(ids, maxTokens, clsID, sepID)
}

// WordPieceTokenizer implements BERT uncased tokenization: lower-casing, punctuation
// splitting and greedy longest-match subwords ("##" continuation pieces).
type WordPieceTokenizer struct {
	vocab map[string]int64
	unk   int64
	cls   int64
	sep   int64
}

// NewWordPieceTokenizer loads a vocabulary with one token per line; the line number is the ID.
func NewWordPieceTokenizer(vocabPath string) (*WordPieceTokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		if tok := strings.TrimSpace(scanner.Text()); tok != "" {
			vocab[tok] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", vocabPath, err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary %s is empty", vocabPath)
	}
	lookup := func(tok string, def int64) int64 {
		if id, ok := vocab[tok]; ok {
			return id
		}
		return def
	}
	return &WordPieceTokenizer{
		vocab: vocab,
		unk:   lookup("[UNK]", unkID),
		cls:   lookup("[CLS]", clsID),
		sep:   lookup("[SEP]", sepID),
	}, nil
}

// Tokenize returns [CLS] pieces... [SEP] padded or truncated to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicTokens(text) {
		ids = append(ids, t.pieces(word)...)
	}
	return encode(ids, maxTokens, t.cls, t.sep)
}

func (t *WordPieceTokenizer) pieces(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{t.unk}
	}
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				found = id
				break
			}
		}
		if found < 0 {
			return []int64{t.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// basicTokens lower-cases text, drops control characters and splits on whitespace and
// around punctuation, which becomes a token of its own.
func basicTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// encode frames ids with cls and sep and pads to maxTokens. Ids that do not fit are dropped;
// sep always takes the last unpadded slot.
func encode(ids []int64, maxTokens int, cls, sep int64) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	if maxTokens < 2 {
		inputIDs[0], attentionMask[0] = cls, 1
		return inputIDs, attentionMask, tokenTypeIDs
	}
	if len(ids) > maxTokens-2 {
		ids = ids[:maxTokens-2]
	}
	inputIDs[0] = cls
	copy(inputIDs[1:], ids)
	inputIDs[len(ids)+1] = sep
	for i := 0; i < len(ids)+2; i++ {
		attentionMask[i] = 1
	}
	for i := len(ids) + 2; i < maxTokens; i++ {
		inputIDs[i] = padID
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}
