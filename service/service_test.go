package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redlinehq/redline/schema"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := New(WithConfig(&Config{
		Store:   StoreConfig{DSN: filepath.Join(dir, "manuscripts.db")},
		Index:   IndexConfig{DSN: filepath.Join(dir, "context.db")},
		Suggest: SuggestConfig{Provider: "static", NumOptions: 3, ContextChunks: 6, ContextChars: 500},
	}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceEditCycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateManuscript(ctx, CreateManuscriptRequest{
		Title:   "Draft",
		Author:  "A. Writer",
		Content: "It was  really very  quiet in the harbour.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	msID := created.Manuscript.ID

	if _, err := svc.IndexContext(ctx, IndexContextRequest{ManuscriptID: msID}); err != nil {
		t.Fatalf("index context: %v", err)
	}
	if err := svc.SetStylePref(ctx, StylePrefRequest{ManuscriptID: msID, Key: "dialect", Value: "en-GB"}); err != nil {
		t.Fatalf("style pref: %v", err)
	}

	sel, err := svc.SelectText(ctx, SelectRequest{
		ManuscriptID: msID,
		Text:         "It was  really very  quiet",
		Instruction:  "tighten",
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	sugg, err := svc.SuggestEdits(ctx, SuggestRequest{SessionID: sel.Session.ID})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sugg.Session.Status != schema.SessionOptionsReady || len(sugg.Session.Options) == 0 {
		t.Fatalf("unexpected session: %+v", sugg.Session)
	}

	applied, err := svc.ApplyEdit(ctx, ApplyRequest{
		SessionID: sel.Session.ID,
		OptionID:  sugg.Session.Options[0].OptionID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(applied.Version.Content, "It was really very quiet") {
		t.Fatalf("applied content = %q", applied.Version.Content)
	}

	history, err := svc.History(ctx, HistoryRequest{ManuscriptID: msID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Versions) != 2 {
		t.Fatalf("history len = %d", len(history.Versions))
	}
	if !history.Versions[0].IsCurrent {
		t.Fatalf("newest history row not current: %+v", history.Versions)
	}

	// Newest first, so the original version is last.
	reverted, err := svc.Revert(ctx, RevertRequest{ManuscriptID: msID, VersionID: history.Versions[1].ID})
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Version.Content != "It was  really very  quiet in the harbour." {
		t.Fatalf("reverted content = %q", reverted.Version.Content)
	}
}

func TestServiceImportAndExport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "harbour.md")
	if err := os.WriteFile(src, []byte("# Chapter One\nFog everywhere.\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	imported, err := svc.ImportManuscript(ctx, ImportManuscriptRequest{Location: src})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.Manuscript.Title != "harbour" {
		t.Fatalf("title = %q", imported.Manuscript.Title)
	}

	if _, err := svc.IndexContext(ctx, IndexContextRequest{ManuscriptID: imported.Manuscript.ID}); err != nil {
		t.Fatalf("index context: %v", err)
	}
	found, err := svc.SearchContext(ctx, SearchContextRequest{ManuscriptID: imported.Manuscript.ID, Query: "fog", K: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found.Chunks) == 0 || !strings.Contains(found.Chunks[0].Text, "Fog") {
		t.Fatalf("search chunks: %+v", found.Chunks)
	}

	dest := filepath.Join(dir, "out.md")
	out, err := svc.Export(ctx, ExportRequest{ManuscriptID: imported.Manuscript.ID, Destination: dest})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out.Location)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Fog everywhere.") {
		t.Fatalf("export content:\n%s", data)
	}

	plain := filepath.Join(dir, "out.txt")
	if _, err := svc.Export(ctx, ExportRequest{ManuscriptID: imported.Manuscript.ID, Destination: plain}); err != nil {
		t.Fatalf("export txt: %v", err)
	}
	raw, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("read txt export: %v", err)
	}
	if strings.Contains(string(raw), "**Author:**") {
		t.Fatalf("txt export carries markdown header:\n%s", raw)
	}
}

func TestServiceVersionContentAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateManuscript(ctx, CreateManuscriptRequest{Title: "Draft", Content: "text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.VersionContent(ctx, ContentRequest{ManuscriptID: created.Manuscript.ID})
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if got.Version.Content != "text" {
		t.Fatalf("content = %q", got.Version.Content)
	}
	if err := svc.DeleteManuscript(ctx, created.Manuscript.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := svc.Manuscripts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("manuscripts = %d", len(list))
	}
}
