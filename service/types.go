package service

import (
	"github.com/redlinehq/redline/retrieval"
	"github.com/redlinehq/redline/schema"
)

// CreateManuscriptRequest defines inputs for creating a manuscript from text.
type CreateManuscriptRequest struct {
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content"`
}

// ImportManuscriptRequest defines inputs for creating a manuscript from a
// file (markdown, text, DOCX or PDF).
type ImportManuscriptRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Location string `json:"location"`
}

// ManuscriptResult describes a manuscript and its current version.
type ManuscriptResult struct {
	Manuscript *schema.Manuscript `json:"manuscript"`
	Version    *schema.Version    `json:"version,omitempty"`
}

// SelectRequest opens an edit session over a selected passage.
type SelectRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	Text         string `json:"text"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	HasOffsets   bool   `json:"has_offsets"`
	Instruction  string `json:"instruction"`
}

// SessionResult describes an edit session snapshot.
type SessionResult struct {
	Session *schema.EditSession `json:"session"`
}

// SuggestRequest asks for rewrite options for a session.
type SuggestRequest struct {
	SessionID string `json:"session_id"`
}

// ApplyRequest applies one option of a session.
type ApplyRequest struct {
	SessionID string `json:"session_id"`
	OptionID  string `json:"option_id"`
}

// ApplyResult describes the version created by an apply.
type ApplyResult struct {
	Version *schema.Version `json:"version"`
}

// HistoryRequest lists a manuscript's versions.
type HistoryRequest struct {
	ManuscriptID string `json:"manuscript_id"`
}

// HistoryResult lists history rows newest first.
type HistoryResult struct {
	Versions []schema.VersionInfo `json:"versions"`
}

// RevertRequest reverts a manuscript to an earlier version.
type RevertRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	VersionID    string `json:"version_id"`
}

// ContentRequest fetches version content; an empty VersionID means current.
type ContentRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	VersionID    string `json:"version_id,omitempty"`
}

// ContentResult carries one version with content.
type ContentResult struct {
	Version *schema.Version `json:"version"`
}

// ExportRequest renders the current version as markdown.
type ExportRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	Destination  string `json:"destination,omitempty"`
}

// ExportResult names the written file.
type ExportResult struct {
	Location string `json:"location"`
}

// IndexContextRequest (re)indexes the current version for retrieval.
type IndexContextRequest struct {
	ManuscriptID string `json:"manuscript_id"`
}

// IndexContextResult reports the indexed chunk count.
type IndexContextResult struct {
	VersionID string `json:"version_id"`
	Chunks    int    `json:"chunks"`
}

// SearchContextRequest queries the context index of one manuscript.
type SearchContextRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	Query        string `json:"query"`
	K            int    `json:"k,omitempty"`
}

// SearchContextResult lists matching chunks, best first.
type SearchContextResult struct {
	Chunks []retrieval.ScoredChunk `json:"chunks"`
}

// StylePrefRequest sets one style preference.
type StylePrefRequest struct {
	ManuscriptID string `json:"manuscript_id"`
	Key          string `json:"key"`
	Value        string `json:"value"`
}
