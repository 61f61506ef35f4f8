package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/redlinehq/redline/schema"
	"github.com/redlinehq/redline/selection"
)

// CreateManuscript stores a new manuscript with its initial version.
func (s *Service) CreateManuscript(ctx context.Context, req CreateManuscriptRequest) (*ManuscriptResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	m, err := s.store.CreateManuscript(ctx, req.Title, req.Author, req.Content)
	if err != nil {
		return nil, err
	}
	v, err := s.store.CurrentVersion(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &ManuscriptResult{Manuscript: m, Version: v}, nil
}

// ImportManuscript loads a file and stores it as a new manuscript. When Title
// is empty the filename stem is used.
func (s *Service) ImportManuscript(ctx context.Context, req ImportManuscriptRequest) (*ManuscriptResult, error) {
	if req.Location == "" {
		return nil, fmt.Errorf("location is required")
	}
	content, err := s.files.Load(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	title := req.Title
	if title == "" {
		title = titleFromLocation(req.Location)
	}
	return s.CreateManuscript(ctx, CreateManuscriptRequest{Title: title, Author: req.Author, Content: content})
}

// GetManuscript fetches one manuscript and its current version.
func (s *Service) GetManuscript(ctx context.Context, manuscriptID string) (*ManuscriptResult, error) {
	m, err := s.store.GetManuscript(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	v, err := s.store.CurrentVersion(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	return &ManuscriptResult{Manuscript: m, Version: v}, nil
}

// Manuscripts lists all manuscripts.
func (s *Service) Manuscripts(ctx context.Context) ([]*schema.Manuscript, error) {
	return s.store.ListManuscripts(ctx)
}

// DeleteManuscript removes a manuscript and its history.
func (s *Service) DeleteManuscript(ctx context.Context, manuscriptID string) error {
	return s.store.DeleteManuscript(ctx, manuscriptID)
}

// SelectText opens an edit session for a selected passage.
func (s *Service) SelectText(ctx context.Context, req SelectRequest) (*SessionResult, error) {
	sess, err := s.sessions.Create(ctx, req.ManuscriptID, selection.Reported{
		Text:       req.Text,
		Start:      req.Start,
		End:        req.End,
		HasOffsets: req.HasOffsets,
	}, req.Instruction)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: sess}, nil
}

// SuggestEdits generates rewrite options for a session.
func (s *Service) SuggestEdits(ctx context.Context, req SuggestRequest) (*SessionResult, error) {
	sess, err := s.sessions.Suggest(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: sess}, nil
}

// Session returns a session snapshot.
func (s *Service) Session(req SuggestRequest) (*SessionResult, error) {
	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: sess}, nil
}

// ApplyEdit applies one option and commits the result as a new version.
func (s *Service) ApplyEdit(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	v, err := s.sessions.Apply(ctx, req.SessionID, req.OptionID)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if _, err := s.index.IndexVersion(ctx, v.ManuscriptID, v.ID, v.Content); err != nil && s.logf != nil {
			s.logf("reindex manuscript=%s version=%s failed: %v", v.ManuscriptID, v.ID, err)
		}
	}
	return &ApplyResult{Version: v}, nil
}

// DiscardSession discards a live session.
func (s *Service) DiscardSession(req SuggestRequest) error {
	return s.sessions.Discard(req.SessionID)
}

// History lists a manuscript's versions oldest first.
func (s *Service) History(ctx context.Context, req HistoryRequest) (*HistoryResult, error) {
	infos, err := s.versions.History(ctx, req.ManuscriptID)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Versions: infos}, nil
}

// Revert appends a new version carrying an earlier version's content.
func (s *Service) Revert(ctx context.Context, req RevertRequest) (*ApplyResult, error) {
	v, err := s.versions.Revert(ctx, req.ManuscriptID, req.VersionID)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if _, err := s.index.IndexVersion(ctx, v.ManuscriptID, v.ID, v.Content); err != nil && s.logf != nil {
			s.logf("reindex manuscript=%s version=%s failed: %v", v.ManuscriptID, v.ID, err)
		}
	}
	return &ApplyResult{Version: v}, nil
}

// VersionContent fetches one version's content, current when VersionID is
// empty.
func (s *Service) VersionContent(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	v, err := s.versions.Content(ctx, req.ManuscriptID, req.VersionID)
	if err != nil {
		return nil, err
	}
	return &ContentResult{Version: v}, nil
}

// Export writes the current version as markdown.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	m, err := s.store.GetManuscript(ctx, req.ManuscriptID)
	if err != nil {
		return nil, err
	}
	v, err := s.store.CurrentVersion(ctx, req.ManuscriptID)
	if err != nil {
		return nil, err
	}
	location, err := s.files.Export(ctx, m, v, req.Destination)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Location: location}, nil
}

// IndexContext (re)indexes the current version for context retrieval.
func (s *Service) IndexContext(ctx context.Context, req IndexContextRequest) (*IndexContextResult, error) {
	if s.index == nil {
		return nil, fmt.Errorf("context index is not configured")
	}
	v, err := s.store.CurrentVersion(ctx, req.ManuscriptID)
	if err != nil {
		return nil, err
	}
	n, err := s.index.IndexVersion(ctx, req.ManuscriptID, v.ID, v.Content)
	if err != nil {
		return nil, err
	}
	return &IndexContextResult{VersionID: v.ID, Chunks: n}, nil
}

// SearchContext queries a manuscript's indexed chunks.
func (s *Service) SearchContext(ctx context.Context, req SearchContextRequest) (*SearchContextResult, error) {
	if s.index == nil {
		return nil, fmt.Errorf("context index is not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	chunks, err := s.index.Retrieve(ctx, req.ManuscriptID, req.Query, req.K)
	if err != nil {
		return nil, err
	}
	return &SearchContextResult{Chunks: chunks}, nil
}

// SetStylePref stores one per-manuscript style preference.
func (s *Service) SetStylePref(ctx context.Context, req StylePrefRequest) error {
	if strings.TrimSpace(req.Key) == "" {
		return fmt.Errorf("key is required")
	}
	return s.store.SetStylePref(ctx, req.ManuscriptID, req.Key, req.Value)
}

// StylePrefs lists a manuscript's style preferences.
func (s *Service) StylePrefs(ctx context.Context, manuscriptID string) (map[string]string, error) {
	return s.store.StylePrefs(ctx, manuscriptID)
}

func titleFromLocation(location string) string {
	name := location
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	if name == "" {
		return "Untitled"
	}
	return name
}
