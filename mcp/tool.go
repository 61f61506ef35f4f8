package mcp

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/viant/jsonrpc"
	protoschema "github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"
)

//go:embed tools/create.md
var descCreate string

//go:embed tools/import.md
var descImport string

//go:embed tools/manuscripts.md
var descManuscripts string

//go:embed tools/select.md
var descSelect string

//go:embed tools/suggest.md
var descSuggest string

//go:embed tools/apply.md
var descApply string

//go:embed tools/discard.md
var descDiscard string

//go:embed tools/history.md
var descHistory string

//go:embed tools/revert.md
var descRevert string

//go:embed tools/content.md
var descContent string

//go:embed tools/export.md
var descExport string

//go:embed tools/indexcontext.md
var descIndexContext string

//go:embed tools/style.md
var descStyle string

//go:embed tools/search.md
var descSearch string

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if err := protoserver.RegisterTool[*CreateInput, *ManuscriptOutput](registry, "create", descCreate, func(ctx context.Context, in *CreateInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.create(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ImportInput, *ManuscriptOutput](registry, "import", descImport, func(ctx context.Context, in *ImportInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.importManuscript(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ManuscriptsInput, *ManuscriptsOutput](registry, "manuscripts", descManuscripts, func(ctx context.Context, in *ManuscriptsInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.manuscripts(ctx)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*SelectInput, *SessionOutput](registry, "select", descSelect, func(ctx context.Context, in *SelectInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.selectText(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*SuggestInput, *SessionOutput](registry, "suggest", descSuggest, func(ctx context.Context, in *SuggestInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.suggest(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ApplyInput, *VersionOutput](registry, "apply", descApply, func(ctx context.Context, in *ApplyInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.apply(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*DiscardInput, *DiscardOutput](registry, "discard", descDiscard, func(ctx context.Context, in *DiscardInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.discard(in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*HistoryInput, *HistoryOutput](registry, "history", descHistory, func(ctx context.Context, in *HistoryInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.history(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*RevertInput, *VersionOutput](registry, "revert", descRevert, func(ctx context.Context, in *RevertInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.revert(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ContentInput, *VersionOutput](registry, "content", descContent, func(ctx context.Context, in *ContentInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.content(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ExportInput, *ExportOutput](registry, "export", descExport, func(ctx context.Context, in *ExportInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.export(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*IndexContextInput, *IndexContextOutput](registry, "indexContext", descIndexContext, func(ctx context.Context, in *IndexContextInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.indexContext(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*SearchInput, *SearchOutput](registry, "search", descSearch, func(ctx context.Context, in *SearchInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.search(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*StylePrefInput, *StylePrefOutput](registry, "setStyle", descStyle, func(ctx context.Context, in *StylePrefInput) (*protoschema.CallToolResult, *jsonrpc.Error) {
		out, err := h.setStyle(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	return nil
}

func buildErrorResult(message string) (*protoschema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*protoschema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &protoschema.CallToolResult{
		Content: []protoschema.CallToolResultContentElem{
			protoschema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}
