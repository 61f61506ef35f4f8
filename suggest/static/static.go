// Package static is a deterministic offline suggester for local development
// and tests. It applies rule-based cleanups of increasing aggressiveness
// instead of calling a model.
package static

import (
	"context"
	"strings"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/suggest"
)

// Suggester rewrites passages with fixed text transforms.
type Suggester struct{}

// New creates a static suggester.
func New() *Suggester { return &Suggester{} }

var fillerWords = map[string]bool{
	"very": true, "really": true, "just": true, "quite": true,
	"actually": true, "basically": true, "simply": true, "rather": true,
}

// Suggest implements suggest.Suggester. The same input always yields the same
// proposals.
func (s *Suggester) Suggest(ctx context.Context, req suggest.Request) ([]suggest.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	light := collapseWhitespace(req.TargetText)
	medium := normalizePunctuation(light)
	bold := dropFillerWords(medium)

	proposals := suggest.Labels([]suggest.Proposal{
		{Label: "A", Severity: schema.SeverityLight, Before: req.TargetText, After: light},
		{Label: "B", Severity: schema.SeverityMedium, Before: req.TargetText, After: medium},
		{Label: "C", Severity: schema.SeverityBold, Before: req.TargetText, After: bold},
	}, req.TargetText)
	if req.NumOptions > 0 && len(proposals) > req.NumOptions {
		proposals = proposals[:req.NumOptions]
	}
	if len(proposals) == 0 {
		return nil, suggest.ErrNoOptions
	}
	return proposals, nil
}

// collapseWhitespace squeezes runs of spaces and tabs, keeping newlines.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			space = true
			continue
		}
		if space {
			if b.Len() > 0 && r != '\n' {
				b.WriteByte(' ')
			}
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

var punctReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"–", "-", "—", " - ",
	"...", "…",
)

func normalizePunctuation(s string) string {
	return punctReplacer.Replace(s)
}

func dropFillerWords(s string) string {
	words := strings.Split(s, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if fillerWords[strings.ToLower(strings.Trim(w, ".,;:!?"))] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
