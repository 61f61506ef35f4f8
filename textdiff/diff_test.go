package textdiff

import (
	"reflect"
	"testing"

	"github.com/redlinehq/redline/schema"
)

func TestDiffRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		before string
		after  string
	}{
		{"replace word", "A cat sat.", "A feline sat."},
		{"insert word", "the quick fox", "the quick brown fox"},
		{"delete word", "the quick brown fox", "the brown fox"},
		{"identical", "nothing changes here", "nothing changes here"},
		{"empty before", "", "fresh text"},
		{"empty after", "gone entirely", ""},
		{"whitespace only change", "a  b", "a b"},
		{"multiline", "line one\nline two\n", "line one\nline 2\nline three\n"},
		{"unicode", "der schöne Tag", "der große Tag"},
		{"full rewrite", "alpha beta gamma", "one two three four"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hunks := Diff(tc.before, tc.after)
			got, err := Apply(tc.before, hunks)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if got != tc.after {
				t.Fatalf("apply = %q, want %q", got, tc.after)
			}
			back, err := Apply(tc.after, Reverse(hunks))
			if err != nil {
				t.Fatalf("apply reverse: %v", err)
			}
			if back != tc.before {
				t.Fatalf("apply reverse = %q, want %q", back, tc.before)
			}
		})
	}
}

func TestDiffDeterministic(t *testing.T) {
	before := "the cat sat on the mat and the cat purred"
	after := "the dog sat on the mat and the dog barked"
	first := Diff(before, after)
	for i := 0; i < 10; i++ {
		if got := Diff(before, after); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced a different hunk sequence:\n%v\n%v", i, got, first)
		}
	}
}

func TestDiffGroupsMaximalRuns(t *testing.T) {
	hunks := Diff("one two three", "one TWO THREE")
	for i := 1; i < len(hunks); i++ {
		if hunks[i].Op == hunks[i-1].Op {
			t.Fatalf("adjacent hunks share op %s: %v", hunks[i].Op, hunks)
		}
	}
}

func TestDiffEqualOnlyForIdentical(t *testing.T) {
	hunks := Diff("same text", "same text")
	if len(hunks) != 1 || hunks[0].Op != schema.DiffEqual {
		t.Fatalf("expected single equal hunk, got %v", hunks)
	}
	if hunks := Diff("", ""); hunks != nil {
		t.Fatalf("expected no hunks for empty inputs, got %v", hunks)
	}
}

func TestApplyRejectsDriftedSource(t *testing.T) {
	hunks := Diff("A cat sat.", "A feline sat.")
	if _, err := Apply("A dog sat.", hunks); err == nil {
		t.Fatal("expected error applying hunks to drifted source")
	}
}

func TestTokenizeLossless(t *testing.T) {
	inputs := []string{"", "a", "  leading", "trailing  ", "a b\tc\nd", "schöne  Grüße\n"}
	for _, in := range inputs {
		joined := ""
		for _, tok := range tokenize(in) {
			joined += tok
		}
		if joined != in {
			t.Fatalf("tokenize(%q) not lossless: %q", in, joined)
		}
	}
}
