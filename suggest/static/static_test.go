package static

import (
	"context"
	"reflect"
	"testing"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/suggest"
)

func TestSuggestDeterministic(t *testing.T) {
	s := New()
	req := suggest.Request{
		Instruction: "tighten",
		TargetText:  "It was  really very  quiet — “too quiet”.",
		NumOptions:  3,
	}
	first, err := s.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("len = %d, want 3", len(first))
	}
	again, err := s.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("suggest again: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("proposals differ across runs:\n%v\n%v", first, again)
	}
}

func TestSuggestSeveritiesEscalate(t *testing.T) {
	s := New()
	got, err := s.Suggest(context.Background(), suggest.Request{
		TargetText: "He was just very tired.",
		NumOptions: 3,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	want := []schema.Severity{schema.SeverityLight, schema.SeverityMedium, schema.SeverityBold}
	for i, p := range got {
		if p.Severity != want[i] {
			t.Fatalf("option %d severity = %s, want %s", i, p.Severity, want[i])
		}
		if p.Before != "He was just very tired." {
			t.Fatalf("option %d before = %q", i, p.Before)
		}
	}
	if got[2].After != "He was tired." {
		t.Fatalf("bold rewrite = %q", got[2].After)
	}
}

func TestSuggestHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Suggest(ctx, suggest.Request{TargetText: "x"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestLabelsFillsDefaults(t *testing.T) {
	got := suggest.Labels([]suggest.Proposal{
		{After: "one"},
		{After: ""},
		{After: "two"},
	}, "orig")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (empty rewrite dropped)", len(got))
	}
	if got[0].Label != "A" || got[1].Label != "B" {
		t.Fatalf("labels = %q, %q", got[0].Label, got[1].Label)
	}
	if got[0].Before != "orig" {
		t.Fatalf("before = %q", got[0].Before)
	}
}
