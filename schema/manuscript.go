package schema

import "time"

// Manuscript is the root aggregate: a document plus its version history.
// CurrentVersionID always references a version belonging to this manuscript
// and is never empty once the manuscript exists.
type Manuscript struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Author           string    `json:"author,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	CurrentVersionID string    `json:"current_version_id"`
}

// Version is an immutable full-text snapshot of a manuscript.
// Versions form a strictly append-only sequence per manuscript; no version is
// ever deleted or mutated in place. ParentVersionID records which version this
// one was derived from (including reverts).
type Version struct {
	ID              string    `json:"id"`
	ManuscriptID    string    `json:"manuscript_id"`
	Content         string    `json:"content"`
	VersionTag      string    `json:"version_tag"`
	ContentHash     string    `json:"content_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ParentVersionID string    `json:"parent_version_id,omitempty"`
}

// VersionInfo is a history row without the content payload.
type VersionInfo struct {
	ID         string    `json:"id"`
	VersionTag string    `json:"version_tag"`
	CreatedAt  time.Time `json:"created_at"`
	IsCurrent  bool      `json:"is_current"`
}

// Range is a half-open [Start, End) character offset range over canonical
// content.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the range length.
func (r Range) Len() int { return r.End - r.Start }

// Valid reports whether the range is non-empty and fits content of the given
// length.
func (r Range) Valid(contentLen int) bool {
	return r.Start >= 0 && r.Start < r.End && r.End <= contentLen
}
