// Package selection validates UI-reported text selections against canonical
// manuscript content. The rendering layer may drift from the stored text
// (markup offsets, stale renders), so offsets are never trusted blindly.
package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redlinehq/redline/schema"
)

// ErrUnresolved indicates the reported selection could not be located in the
// canonical content; the caller must re-select.
var ErrUnresolved = errors.New("selection: unresolved")

// Reported is a selection as captured by the rendering layer. Start/End are
// only meaningful when HasOffsets is set.
type Reported struct {
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	HasOffsets bool   `json:"has_offsets"`
}

// Resolved is a validated selection: canonical[Range.Start:Range.End] == Text.
type Resolved struct {
	Range schema.Range `json:"range"`
	Text  string       `json:"text"`
}

// Resolve validates a reported selection against canonical content.
//
// The offset pair is accepted when it is in bounds and the canonical substring
// matches the reported text exactly. Otherwise the trimmed text is located by
// substring search; when the text occurs more than once and stale offsets were
// reported, the occurrence nearest the reported start wins, else the first
// occurrence. Returns ErrUnresolved when neither path succeeds.
func Resolve(canonical string, reported Reported) (Resolved, error) {
	if reported.HasOffsets {
		r := schema.Range{Start: reported.Start, End: reported.End}
		if r.Valid(len(canonical)) && canonical[r.Start:r.End] == reported.Text {
			return Resolved{Range: r, Text: reported.Text}, nil
		}
	}
	text := strings.TrimSpace(reported.Text)
	if text == "" {
		return Resolved{}, fmt.Errorf("%w: empty selection", ErrUnresolved)
	}
	start := locate(canonical, text, reported)
	if start < 0 {
		return Resolved{}, fmt.Errorf("%w: %q not found in canonical content", ErrUnresolved, clip(text, 40))
	}
	return Resolved{
		Range: schema.Range{Start: start, End: start + len(text)},
		Text:  text,
	}, nil
}

// locate finds the occurrence of text to use. With stale offsets available it
// scans all occurrences and picks the one nearest the reported start.
func locate(canonical, text string, reported Reported) int {
	first := strings.Index(canonical, text)
	if first < 0 || !reported.HasOffsets {
		return first
	}
	best, bestDist := -1, 0
	for from := 0; ; {
		idx := strings.Index(canonical[from:], text)
		if idx < 0 {
			break
		}
		abs := from + idx
		dist := abs - reported.Start
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = abs, dist
		}
		from = abs + 1
	}
	return best
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
