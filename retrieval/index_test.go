package retrieval

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redlinehq/redline/embeddings"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(
		WithDSN(filepath.Join(t.TempDir(), "context.db")),
		WithEmbedder(embeddings.NewSimple(128)),
		WithChunker(NewChunker(WithMaxChunkSize(120), WithOverlap(0))),
	)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexAndRetrieve(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	content := "The harbour lay silent under fog. Gulls wheeled above the pier.\n" +
		"Inside the lighthouse the keeper trimmed his lamp. The lamp flame steadied.\n" +
		"Far out at sea a ship sounded its horn. The horn echoed off the cliffs.\n"

	n, err := idx.IndexVersion(ctx, "m1", "v1", content)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks indexed")
	}
	got, err := idx.Retrieve(ctx, "m1", "lighthouse keeper lamp", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no chunks retrieved")
	}
	if !strings.Contains(got[0].Text, "lamp") {
		t.Fatalf("top chunk not about the lamp: %q", got[0].Text)
	}
	if got[0].VersionID != "v1" {
		t.Fatalf("version = %q", got[0].VersionID)
	}
	if got[0].Text != content[got[0].Start:got[0].End] {
		t.Fatalf("chunk offsets drifted: %+v", got[0])
	}
}

func TestIndexVersionReplacesPrevious(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if _, err := idx.IndexVersion(ctx, "m1", "v1", "The old draft talked about dragons. Dragons everywhere."); err != nil {
		t.Fatalf("index v1: %v", err)
	}
	if _, err := idx.IndexVersion(ctx, "m1", "v2", "The new draft is about sailing. Ships and harbours."); err != nil {
		t.Fatalf("index v2: %v", err)
	}
	got, err := idx.Retrieve(ctx, "m1", "dragons", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, c := range got {
		if c.VersionID == "v1" {
			t.Fatalf("stale chunk from v1 retrieved: %+v", c)
		}
	}
}

func TestRetrieveIsolatesManuscripts(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if _, err := idx.IndexVersion(ctx, "m1", "v1", "A story about bees and honey."); err != nil {
		t.Fatalf("index m1: %v", err)
	}
	if _, err := idx.IndexVersion(ctx, "m2", "v1", "A story about trains and stations."); err != nil {
		t.Fatalf("index m2: %v", err)
	}
	got, err := idx.Retrieve(ctx, "m2", "bees", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, c := range got {
		if strings.Contains(c.Text, "bees") {
			t.Fatalf("cross-manuscript chunk retrieved: %+v", c)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	got, err := idx.Retrieve(context.Background(), "missing", "anything", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no chunks, got %+v", got)
	}
}
