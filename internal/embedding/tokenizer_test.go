package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("Hello, world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d,%d,%d; want 10", len(ids), len(attn), len(types))
	}
	// [CLS] hello , world [SEP]
	if ids[0] != clsID || ids[4] != sepID {
		t.Errorf("ids = %v", ids)
	}
	wantMask := []int64{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	if !reflect.DeepEqual(attn, wantMask) {
		t.Errorf("attention = %v, want %v", attn, wantMask)
	}
	for _, id := range ids[1:4] {
		if id <= sepID || id >= simpleVocabSize {
			t.Errorf("word id %d outside the vocabulary range", id)
		}
	}
	again, _, _ := tok.Tokenize("hello , WORLD", 10)
	if !reflect.DeepEqual(ids, again) {
		t.Error("tokenization should ignore case and spacing around punctuation")
	}
}

func TestSimpleTokenizer_Truncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("one two three four five six", 4)
	if len(ids) != 4 {
		t.Fatalf("len = %d, want 4", len(ids))
	}
	for i, a := range attn {
		if a != 1 {
			t.Errorf("attention[%d] = %d, want 1", i, a)
		}
	}
	if ids[3] != sepID {
		t.Errorf("expected SEP in last slot, got %d", ids[3])
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") == HashString("abd") {
		t.Error("different strings should hash differently")
	}
	if HashString(strings.Repeat("z", 1000)) < 0 {
		t.Error("hash should be non-negative")
	}
}

func writeVocab(t *testing.T, dir string, tokens ...string) string {
	t.Helper()
	path := filepath.Join(dir, VocabFile)
	if err := os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWordPieceTokenizer(t *testing.T) {
	// IDs are line numbers.
	path := writeVocab(t, t.TempDir(), "[PAD]", "[UNK]", "[CLS]", "[SEP]", "paris", "capital", "cap", "##ital", "##s", "?", "the")
	tok, err := NewWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, attn, _ := tok.Tokenize("The capitals of Paris?", 12)
	// [CLS] the capital ##s [UNK] paris ? [SEP]
	want := []int64{2, 10, 5, 8, 1, 4, 9, 3, 0, 0, 0, 0}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if attn[7] != 1 || attn[8] != 0 {
		t.Errorf("attention = %v", attn)
	}
}

func TestLoadTokenizer(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	tok, err := LoadTokenizer(model)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tok.(*SimpleTokenizer); !ok {
		t.Errorf("without a vocabulary got %T, want *SimpleTokenizer", tok)
	}

	writeVocab(t, dir, "[PAD]", "[UNK]")
	tok, err = LoadTokenizer(model)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tok.(*WordPieceTokenizer); !ok {
		t.Errorf("with a vocabulary got %T, want *WordPieceTokenizer", tok)
	}
}
