package extract

import (
	"reflect"
	"testing"
)

func TestChunker_Chunk(t *testing.T) {
	c, err := NewChunker(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Chunk("one two three four five six seven")
	want := []string{"one two three", "three four five", "five six seven"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chunk = %q, want %q", got, want)
	}
}

func TestChunker_ChunkShortAndEmpty(t *testing.T) {
	c, _ := NewChunker(5, 0)
	if got := c.Chunk("  a\n b  "); !reflect.DeepEqual(got, []string{"a b"}) {
		t.Errorf("short text = %q", got)
	}
	if got := c.Chunk("   \n\t  "); got != nil {
		t.Errorf("empty text should return nil, got %v", got)
	}
}

func TestNewChunker_Invalid(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{0, 0}, {-1, 0}, {3, 3}, {3, -1}} {
		if _, err := NewChunker(tc.size, tc.overlap); err == nil {
			t.Errorf("NewChunker(%d, %d) should fail", tc.size, tc.overlap)
		}
	}
}
