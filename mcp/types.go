package mcp

import (
	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/service"
)

type CreateInput struct {
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content"`
}

type ImportInput struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Location string `json:"location"`
}

type ManuscriptOutput struct {
	Manuscript *schema.Manuscript `json:"manuscript"`
	VersionTag string             `json:"version_tag,omitempty"`
}

type ManuscriptsInput struct{}

type ManuscriptsOutput struct {
	Manuscripts []*schema.Manuscript `json:"manuscripts"`
}

type SelectInput struct {
	ManuscriptID string `json:"manuscript_id"`
	Text         string `json:"text"`
	Start        int    `json:"start,omitempty"`
	End          int    `json:"end,omitempty"`
	HasOffsets   bool   `json:"has_offsets,omitempty"`
	Instruction  string `json:"instruction"`
}

type SessionOutput struct {
	Session *schema.EditSession `json:"session"`
}

type SuggestInput struct {
	SessionID string `json:"session_id"`
}

type ApplyInput struct {
	SessionID string `json:"session_id"`
	OptionID  string `json:"option_id"`
}

type VersionOutput struct {
	Version *schema.Version `json:"version"`
}

type DiscardInput struct {
	SessionID string `json:"session_id"`
}

type DiscardOutput struct {
	Discarded bool `json:"discarded"`
}

type HistoryInput struct {
	ManuscriptID string `json:"manuscript_id"`
}

type HistoryOutput struct {
	Versions []schema.VersionInfo `json:"versions"`
}

type RevertInput struct {
	ManuscriptID string `json:"manuscript_id"`
	VersionID    string `json:"version_id"`
}

type ContentInput struct {
	ManuscriptID string `json:"manuscript_id"`
	VersionID    string `json:"version_id,omitempty"`
}

type ExportInput struct {
	ManuscriptID string `json:"manuscript_id"`
	Destination  string `json:"destination,omitempty"`
}

type ExportOutput struct {
	Location string `json:"location"`
}

type IndexContextInput struct {
	ManuscriptID string `json:"manuscript_id"`
}

type IndexContextOutput = service.IndexContextResult

type SearchInput struct {
	ManuscriptID string `json:"manuscript_id"`
	Query        string `json:"query"`
	K            int    `json:"k,omitempty"`
}

type SearchOutput = service.SearchContextResult

type StylePrefInput struct {
	ManuscriptID string `json:"manuscript_id"`
	Key          string `json:"key"`
	Value        string `json:"value"`
}

type StylePrefOutput struct {
	Prefs map[string]string `json:"prefs"`
}
