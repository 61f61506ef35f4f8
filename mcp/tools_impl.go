package mcp

import (
	"context"
	"fmt"

	"github.com/redlinehq/redline/service"
)

func (h *Handler) create(ctx context.Context, in *CreateInput) (*ManuscriptOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.Title == "" {
		return nil, fmt.Errorf("mcp: missing title")
	}
	out, err := h.service.CreateManuscript(ctx, service.CreateManuscriptRequest{
		Title:   in.Title,
		Author:  in.Author,
		Content: in.Content,
	})
	if err != nil {
		return nil, err
	}
	return &ManuscriptOutput{Manuscript: out.Manuscript, VersionTag: out.Version.VersionTag}, nil
}

func (h *Handler) importManuscript(ctx context.Context, in *ImportInput) (*ManuscriptOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.Location == "" {
		return nil, fmt.Errorf("mcp: missing location")
	}
	out, err := h.service.ImportManuscript(ctx, service.ImportManuscriptRequest{
		Title:    in.Title,
		Author:   in.Author,
		Location: in.Location,
	})
	if err != nil {
		return nil, err
	}
	return &ManuscriptOutput{Manuscript: out.Manuscript, VersionTag: out.Version.VersionTag}, nil
}

func (h *Handler) manuscripts(ctx context.Context) (*ManuscriptsOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	list, err := h.service.Manuscripts(ctx)
	if err != nil {
		return nil, err
	}
	return &ManuscriptsOutput{Manuscripts: list}, nil
}

func (h *Handler) selectText(ctx context.Context, in *SelectInput) (*SessionOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id")
	}
	if in.Text == "" {
		return nil, fmt.Errorf("mcp: missing text")
	}
	out, err := h.service.SelectText(ctx, service.SelectRequest{
		ManuscriptID: in.ManuscriptID,
		Text:         in.Text,
		Start:        in.Start,
		End:          in.End,
		HasOffsets:   in.HasOffsets,
		Instruction:  in.Instruction,
	})
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Session: out.Session}, nil
}

func (h *Handler) suggest(ctx context.Context, in *SuggestInput) (*SessionOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.SessionID == "" {
		return nil, fmt.Errorf("mcp: missing session_id")
	}
	out, err := h.service.SuggestEdits(ctx, service.SuggestRequest{SessionID: in.SessionID})
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Session: out.Session}, nil
}

func (h *Handler) apply(ctx context.Context, in *ApplyInput) (*VersionOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.SessionID == "" || in.OptionID == "" {
		return nil, fmt.Errorf("mcp: missing session_id or option_id")
	}
	out, err := h.service.ApplyEdit(ctx, service.ApplyRequest{SessionID: in.SessionID, OptionID: in.OptionID})
	if err != nil {
		return nil, err
	}
	return &VersionOutput{Version: out.Version}, nil
}

func (h *Handler) discard(in *DiscardInput) (*DiscardOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.SessionID == "" {
		return nil, fmt.Errorf("mcp: missing session_id")
	}
	if err := h.service.DiscardSession(service.SuggestRequest{SessionID: in.SessionID}); err != nil {
		return nil, err
	}
	return &DiscardOutput{Discarded: true}, nil
}

func (h *Handler) history(ctx context.Context, in *HistoryInput) (*HistoryOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id")
	}
	out, err := h.service.History(ctx, service.HistoryRequest{ManuscriptID: in.ManuscriptID})
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Versions: out.Versions}, nil
}

func (h *Handler) revert(ctx context.Context, in *RevertInput) (*VersionOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" || in.VersionID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id or version_id")
	}
	out, err := h.service.Revert(ctx, service.RevertRequest{ManuscriptID: in.ManuscriptID, VersionID: in.VersionID})
	if err != nil {
		return nil, err
	}
	return &VersionOutput{Version: out.Version}, nil
}

func (h *Handler) content(ctx context.Context, in *ContentInput) (*VersionOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id")
	}
	out, err := h.service.VersionContent(ctx, service.ContentRequest{ManuscriptID: in.ManuscriptID, VersionID: in.VersionID})
	if err != nil {
		return nil, err
	}
	return &VersionOutput{Version: out.Version}, nil
}

func (h *Handler) export(ctx context.Context, in *ExportInput) (*ExportOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id")
	}
	out, err := h.service.Export(ctx, service.ExportRequest{ManuscriptID: in.ManuscriptID, Destination: in.Destination})
	if err != nil {
		return nil, err
	}
	return &ExportOutput{Location: out.Location}, nil
}

func (h *Handler) indexContext(ctx context.Context, in *IndexContextInput) (*IndexContextOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id")
	}
	return h.service.IndexContext(ctx, service.IndexContextRequest{ManuscriptID: in.ManuscriptID})
}

func (h *Handler) search(ctx context.Context, in *SearchInput) (*SearchOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" || in.Query == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id or query")
	}
	return h.service.SearchContext(ctx, service.SearchContextRequest{
		ManuscriptID: in.ManuscriptID,
		Query:        in.Query,
		K:            in.K,
	})
}

func (h *Handler) setStyle(ctx context.Context, in *StylePrefInput) (*StylePrefOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil || in.ManuscriptID == "" || in.Key == "" {
		return nil, fmt.Errorf("mcp: missing manuscript_id or key")
	}
	if err := h.service.SetStylePref(ctx, service.StylePrefRequest{
		ManuscriptID: in.ManuscriptID,
		Key:          in.Key,
		Value:        in.Value,
	}); err != nil {
		return nil, err
	}
	prefs, err := h.service.StylePrefs(ctx, in.ManuscriptID)
	if err != nil {
		return nil, err
	}
	return &StylePrefOutput{Prefs: prefs}, nil
}
