package openai

import (
	"errors"
	"testing"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/suggest"
)

func TestParseProposalsClampsSeverity(t *testing.T) {
	content := `{"options":[
		{"label":"A","severity":"light","before":"x","after":"y"},
		{"label":"B","severity":"extreme","before":"x","after":"z"},
		{"label":"C","severity":"","before":"x","after":"w"}
	]}`
	proposals, err := parseProposals(content, 3, "x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(proposals) != 3 {
		t.Fatalf("len = %d", len(proposals))
	}
	if proposals[0].Severity != schema.SeverityLight {
		t.Fatalf("valid severity changed: %s", proposals[0].Severity)
	}
	// Out-of-enum and missing severities fall back to the default cycle.
	if proposals[1].Severity != schema.SeverityMedium || proposals[2].Severity != schema.SeverityBold {
		t.Fatalf("severities = %s %s", proposals[1].Severity, proposals[2].Severity)
	}
}

func TestParseProposalsTruncatesAndDropsEmpty(t *testing.T) {
	content := `{"options":[
		{"label":"A","severity":"light","before":"x","after":""},
		{"label":"B","severity":"medium","before":"","after":"y"},
		{"label":"C","severity":"bold","before":"x","after":"z"},
		{"label":"D","severity":"light","before":"x","after":"extra"}
	]}`
	proposals, err := parseProposals(content, 3, "target")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Empty after dropped, fourth option beyond numOptions never parsed.
	if len(proposals) != 2 {
		t.Fatalf("len = %d: %+v", len(proposals), proposals)
	}
	if proposals[0].Before != "target" {
		t.Fatalf("empty before not defaulted: %q", proposals[0].Before)
	}
}

func TestParseProposalsNoOptions(t *testing.T) {
	if _, err := parseProposals(`{"options":[]}`, 3, "x"); !errors.Is(err, suggest.ErrNoOptions) {
		t.Fatalf("expected ErrNoOptions, got %v", err)
	}
	if _, err := parseProposals(`not json`, 3, "x"); err == nil {
		t.Fatal("expected decode error")
	}
}
