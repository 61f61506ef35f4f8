package retrieval

import (
	"strings"
	"testing"
)

func TestSplitOffsetsMatchContent(t *testing.T) {
	content := "Chapter One\nThe cat sat on the mat. It purred loudly. The dog watched.\n\nChapter Two\nRain fell all night. The river rose.\n"
	chunks := NewChunker().Split(content)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	for _, c := range chunks {
		if c.Text != content[c.Start:c.End] {
			t.Fatalf("chunk %d text does not match offsets: %q vs %q", c.Index, c.Text, content[c.Start:c.End])
		}
	}
}

func TestSplitTracksChapters(t *testing.T) {
	content := "Chapter One\nFirst things happened here.\nChapter Two\nThen other things happened.\n"
	chunks := NewChunker(WithMaxChunkSize(30), WithOverlap(0)).Split(content)
	var sawTwo bool
	for _, c := range chunks {
		if strings.Contains(c.Text, "other things") && c.Chapter == "Chapter Two" {
			sawTwo = true
		}
	}
	if !sawTwo {
		t.Fatalf("no chunk attributed to Chapter Two: %+v", chunks)
	}
}

func TestSplitRespectsMaxSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	max := 200
	chunks := NewChunker(WithMaxChunkSize(max), WithOverlap(40)).Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		// A chunk may exceed max only when a single sentence does.
		if len(c.Text) > max+60 {
			t.Fatalf("chunk %d too large: %d bytes", c.Index, len(c.Text))
		}
	}
}

func TestSplitOverlapSharesSentences(t *testing.T) {
	content := "One ran. Two jumped. Three fell. Four rose. Five sang. Six slept. Seven woke."
	chunks := NewChunker(WithMaxChunkSize(30), WithOverlap(12)).Split(content)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Fatalf("chunks %d and %d do not overlap: %+v", i-1, i, chunks)
		}
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d does not advance: %+v", i, chunks)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if chunks := NewChunker().Split("   \n"); chunks != nil {
		t.Fatalf("expected nil for blank content, got %+v", chunks)
	}
}
