// Package retrieval indexes manuscript content as overlapping chunks and
// serves the nearest chunks for a query, giving suggestion prompts book-level
// context beyond the selected passage.
package retrieval

import (
	"regexp"
	"strings"
	"unicode"
)

// Chunk is a contiguous slice of canonical content. Start/End are byte offsets
// into the version the chunk was built from; Text == content[Start:End].
type Chunk struct {
	Index   int    `json:"index"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
	Chapter string `json:"chapter,omitempty"`
}

// Chunker splits manuscript text along sentence boundaries, tracking chapter
// headings so chunks can be attributed to a chapter.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// Option configures the chunker.
type ChunkerOption func(*Chunker)

// WithMaxChunkSize caps chunk size in bytes.
func WithMaxChunkSize(size int) ChunkerOption {
	return func(c *Chunker) { c.maxChunkSize = size }
}

// WithOverlap sets the approximate byte overlap between consecutive chunks.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) { c.overlap = overlap }
}

// NewChunker creates a chunker with sane defaults for prose.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{maxChunkSize: 1200, overlap: 200}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxChunkSize <= 0 {
		c.maxChunkSize = 1200
	}
	if c.overlap < 0 || c.overlap >= c.maxChunkSize {
		c.overlap = c.maxChunkSize / 6
	}
	return c
}

var chapterHeading = regexp.MustCompile(`(?i)^\s*(#{1,3}\s+.+|chapter\s+\w+.*|prologue|epilogue|part\s+\w+.*)\s*$`)

// Split divides content into chunks. Sentences are never cut mid-way unless a
// single sentence exceeds the chunk size; consecutive chunks share trailing
// sentences up to the configured overlap.
func (c *Chunker) Split(content string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	sentences := c.sentences(content)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0 // index of first sentence in current chunk
	for start < len(sentences) {
		end := start
		size := 0
		for end < len(sentences) {
			s := sentences[end]
			if size > 0 && size+(s.end-s.start) > c.maxChunkSize {
				break
			}
			size += s.end - s.start
			end++
		}
		first, last := sentences[start], sentences[end-1]
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Start:   first.start,
			End:     last.end,
			Text:    content[first.start:last.end],
			Chapter: first.chapter,
		})
		if end >= len(sentences) {
			break
		}
		// Back up over trailing sentences to form the overlap, but always
		// advance by at least one sentence.
		next := end
		carried := 0
		for next > start+1 {
			s := sentences[next-1]
			if carried+(s.end-s.start) > c.overlap {
				break
			}
			carried += s.end - s.start
			next--
		}
		start = next
	}
	return chunks
}

type sentence struct {
	start, end int
	chapter    string
}

// sentences returns sentence spans with their enclosing chapter. Chapter
// heading lines delimit sentences so a chunk never straddles a heading.
func (c *Chunker) sentences(content string) []sentence {
	var out []sentence
	chapter := ""
	lineStart := 0
	flushLine := func(lineEnd int) {
		line := content[lineStart:lineEnd]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return
		}
		if chapterHeading.MatchString(trimmed) {
			chapter = trimmed
			out = append(out, sentence{start: lineStart, end: lineEnd, chapter: chapter})
			return
		}
		out = append(out, splitSentences(content, lineStart, lineEnd, chapter, c.maxChunkSize)...)
	}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			flushLine(i + 1)
			lineStart = i + 1
		}
	}
	if lineStart < len(content) {
		flushLine(len(content))
	}
	return out
}

// splitSentences splits content[from:to] after terminal punctuation followed
// by whitespace. Oversized sentences are cut at whitespace near maxSize.
func splitSentences(content string, from, to int, chapter string, maxSize int) []sentence {
	var out []sentence
	start := from
	for i := from; i < to; i++ {
		ch := content[i]
		if ch == '.' || ch == '!' || ch == '?' {
			// Consume closing quotes and repeated punctuation.
			j := i + 1
			for j < to && (content[j] == '"' || content[j] == '\'' || content[j] == '.' || content[j] == '!' || content[j] == '?') {
				j++
			}
			if j >= to || unicode.IsSpace(rune(content[j])) {
				for j < to && content[j] != '\n' && unicode.IsSpace(rune(content[j])) {
					j++
				}
				out = append(out, sentence{start: start, end: j, chapter: chapter})
				start = j
				i = j - 1
				continue
			}
		}
		if i-start >= maxSize && unicode.IsSpace(rune(ch)) {
			out = append(out, sentence{start: start, end: i + 1, chapter: chapter})
			start = i + 1
		}
	}
	if start < to {
		out = append(out, sentence{start: start, end: to, chapter: chapter})
	}
	return out
}
