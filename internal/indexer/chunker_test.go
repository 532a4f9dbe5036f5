package indexer

import (
	"strings"
	"testing"

	"github.com/hyperjump/semantik/internal/extract"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(3, 1)
	page := extract.Page{Number: 4, Label: "iv", Text: "one two  three\nfour five six seven"}
	chunks := c.Chunk("doc1", page, 10)

	want := []string{"one two  three", "three\nfour five", "five six seven"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, ch := range chunks {
		if ch.Content != want[i] {
			t.Errorf("chunk %d content = %q, want %q", i, ch.Content, want[i])
		}
		if !strings.Contains(page.Text, ch.Content) {
			t.Errorf("chunk %d is not a substring of the page", i)
		}
		if ch.DocumentID != "doc1" || ch.PageNumber != 4 || ch.PageLabel != "iv" {
			t.Errorf("chunk %d = %+v", i, ch)
		}
		if ch.ChunkIndex != 10+i {
			t.Errorf("chunk %d ChunkIndex = %d", i, ch.ChunkIndex)
		}
	}
	if chunks[0].ID != "doc1#10" {
		t.Errorf("ID = %q", chunks[0].ID)
	}
}

func TestChunker_shortPage(t *testing.T) {
	chunks := NewChunker(50, 5).Chunk("d", extract.Page{Number: 1, Label: "1", Text: "  Just a few words. "}, 0)
	if len(chunks) != 1 || chunks[0].Content != "Just a few words." {
		t.Fatalf("chunks = %+v", chunks)
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := NewChunker(5, 1)
	if chunks := c.Chunk("d", extract.Page{Text: "   \n\t  "}, 0); chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
}

func TestNewChunker_badOverlap(t *testing.T) {
	c := NewChunker(2, 5)
	chunks := c.Chunk("d", extract.Page{Text: "a b c d"}, 0)
	if len(chunks) != 2 || chunks[1].Content != "c d" {
		t.Errorf("overlap >= size should fall back to no overlap, got %d chunks", len(chunks))
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  a  b  ", "a b"},
		{"line\none\ttab", "line one tab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
