// Package suggest defines the edit-suggestion provider contract. A provider
// turns an instruction plus the selected passage into candidate rewrites; the
// session layer owns diffing, option identity and persistence.
package suggest

import (
	"context"
	"errors"

	"github.com/redlinehq/redline/schema"
)

// ErrNoOptions indicates the provider produced no usable rewrites.
var ErrNoOptions = errors.New("suggest: no options produced")

// Request carries everything a provider needs to propose rewrites.
type Request struct {
	Instruction string
	TargetText  string
	TargetRange schema.Range
	Context     string
	StylePrefs  map[string]string
	NumOptions  int
}

// Proposal is one candidate rewrite of the target text.
type Proposal struct {
	Label    string
	Severity schema.Severity
	Before   string
	After    string
}

// Suggester produces candidate rewrites for a selected passage.
type Suggester interface {
	Suggest(ctx context.Context, req Request) ([]Proposal, error)
}

// Labels assigns default labels (A, B, C, ...) and severities
// (light, medium, bold cycling) to proposals that lack them, and drops
// proposals with an empty rewrite.
func Labels(proposals []Proposal, targetText string) []Proposal {
	severities := []schema.Severity{schema.SeverityLight, schema.SeverityMedium, schema.SeverityBold}
	out := make([]Proposal, 0, len(proposals))
	for _, p := range proposals {
		if p.After == "" {
			continue
		}
		i := len(out)
		if p.Label == "" {
			p.Label = string(rune('A' + i%26))
		}
		if p.Severity == "" {
			p.Severity = severities[i%len(severities)]
		}
		if p.Before == "" {
			p.Before = targetText
		}
		out = append(out, p)
	}
	return out
}
