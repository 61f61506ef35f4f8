// Package textdiff computes deterministic word-level diffs between two text
// states. Tokens alternate between words and whitespace runs so that
// concatenating tokens reproduces the input byte for byte.
package textdiff

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/redlinehq/redline/schema"
)

// Diff returns the minimal hunk sequence transforming before into after,
// aligned at word granularity. Identical inputs always yield byte-identical
// hunk sequences.
func Diff(before, after string) []schema.DiffHunk {
	if before == after {
		if before == "" {
			return nil
		}
		return []schema.DiffHunk{{Op: schema.DiffEqual, Text: before}}
	}
	table := newTokenTable()
	a := table.encode(tokenize(before))
	b := table.encode(tokenize(after))

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // favour accuracy over latency; inputs are selections, not books
	diffs := dmp.DiffMain(a, b, false)

	hunks := make([]schema.DiffHunk, 0, len(diffs))
	for _, d := range diffs {
		text := table.decode(d.Text)
		if text == "" {
			continue
		}
		op := schema.DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = schema.DiffDelete
		case diffmatchpatch.DiffInsert:
			op = schema.DiffInsert
		}
		hunks = append(hunks, schema.DiffHunk{Op: op, Text: text})
	}
	return normalize(hunks)
}

// Apply reconstructs the after text by replaying hunks against before. It
// fails when the equal/delete hunks do not match before, which guards against
// applying a diff to drifted content.
func Apply(before string, hunks []schema.DiffHunk) (string, error) {
	var out strings.Builder
	pos := 0
	for i, h := range hunks {
		switch h.Op {
		case schema.DiffEqual, schema.DiffDelete:
			end := pos + len(h.Text)
			if end > len(before) || before[pos:end] != h.Text {
				return "", fmt.Errorf("textdiff: hunk %d (%s) does not match source at offset %d", i, h.Op, pos)
			}
			if h.Op == schema.DiffEqual {
				out.WriteString(h.Text)
			}
			pos = end
		case schema.DiffInsert:
			out.WriteString(h.Text)
		default:
			return "", fmt.Errorf("textdiff: unknown op %q", h.Op)
		}
	}
	if pos != len(before) {
		return "", fmt.Errorf("textdiff: hunks cover %d of %d source bytes", pos, len(before))
	}
	return out.String(), nil
}

// Reverse returns the inverse hunk sequence: applying it to the after text
// yields the before text.
func Reverse(hunks []schema.DiffHunk) []schema.DiffHunk {
	out := make([]schema.DiffHunk, len(hunks))
	for i, h := range hunks {
		switch h.Op {
		case schema.DiffInsert:
			h.Op = schema.DiffDelete
		case schema.DiffDelete:
			h.Op = schema.DiffInsert
		}
		out[i] = h
	}
	return out
}

// normalize merges adjacent runs of the same op and orders delete before
// insert inside each change block so equal alignments resolve identically.
func normalize(hunks []schema.DiffHunk) []schema.DiffHunk {
	if len(hunks) == 0 {
		return nil
	}
	out := make([]schema.DiffHunk, 0, len(hunks))
	for _, h := range hunks {
		n := len(out)
		if n > 0 && out[n-1].Op == h.Op {
			out[n-1].Text += h.Text
			continue
		}
		if n > 0 && out[n-1].Op == schema.DiffInsert && h.Op == schema.DiffDelete {
			// Canonical order inside a replacement is delete, insert.
			out = append(out[:n-1], h, out[n-1])
			continue
		}
		out = append(out, h)
	}
	// Re-merge in case the swap created adjacent same-op runs.
	merged := out[:0]
	for _, h := range out {
		if n := len(merged); n > 0 && merged[n-1].Op == h.Op {
			merged[n-1].Text += h.Text
			continue
		}
		merged = append(merged, h)
	}
	return merged
}

// tokenize splits text into alternating word and whitespace tokens. The
// concatenation of all tokens equals the input.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	tokens := make([]string, 0, len(s)/4)
	first, _ := utf8.DecodeRuneInString(s)
	start := 0
	inSpace := unicode.IsSpace(first)
	for i, r := range s {
		space := unicode.IsSpace(r)
		if space != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
			inSpace = space
		}
	}
	return append(tokens, s[start:])
}

// tokenTable maps tokens to synthetic runes so diffmatchpatch aligns whole
// tokens instead of characters (the lines-to-chars technique at word
// granularity).
type tokenTable struct {
	index  map[string]rune
	tokens []string
}

func newTokenTable() *tokenTable {
	return &tokenTable{index: make(map[string]rune)}
}

func (t *tokenTable) encode(tokens []string) string {
	var b strings.Builder
	b.Grow(len(tokens))
	for _, tok := range tokens {
		r, ok := t.index[tok]
		if !ok {
			r = syntheticRune(len(t.tokens))
			t.index[tok] = r
			t.tokens = append(t.tokens, tok)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (t *tokenTable) decode(encoded string) string {
	var b strings.Builder
	for _, r := range encoded {
		b.WriteString(t.tokens[syntheticIndex(r)])
	}
	return b.String()
}

// syntheticRune maps a token index to a valid rune, skipping the surrogate
// block that utf8 cannot encode.
func syntheticRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func syntheticIndex(r rune) int {
	if r >= 0xD800+0x800 {
		r -= 0x800
	}
	return int(r - 1)
}
