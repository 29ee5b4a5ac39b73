package wikitools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/textmerge"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// ViewTool handles the wiki_view MCP tool.
type ViewTool struct {
	store *wiki.Store
}

// NewViewTool creates a ViewTool with the given wiki store.
func NewViewTool(store *wiki.Store) *ViewTool {
	return &ViewTool{store: store}
}

// Definition returns the MCP tool definition for wiki_view.
func (t *ViewTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_view",
		mcp.WithDescription(
			"View the current content of a knowledge entry with line numbers. "+
				"Always view before proposing edits — str_replace anchors and insert line numbers "+
				"refer to exactly this rendering. You can optionally request a line range.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
		mcp.WithNumber("start_line",
			mcp.Description("First line to show, 1-based (default: 1)"),
		),
		mcp.WithNumber("end_line",
			mcp.Description("Last line to show, 1-based (default: last line)"),
		),
	)
}

// Handle processes the wiki_view tool call.
func (t *ViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	text, err := t.store.GetText(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load entry: %v", err)), nil
	}

	view, err := textmerge.View(text, intArg(req, "start_line", 0), intArg(req, "end_line", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(view), nil
}

// ─── ValidateReplaceTool ─────────────────────────────────────────────────────

// ValidateReplaceTool handles the wiki_validate_replace MCP tool.
// It lets the agent dry-run a str_replace anchor before committing a batch.
type ValidateReplaceTool struct {
	store *wiki.Store
}

// NewValidateReplaceTool creates a ValidateReplaceTool.
func NewValidateReplaceTool(store *wiki.Store) *ValidateReplaceTool {
	return &ValidateReplaceTool{store: store}
}

// Definition returns the MCP tool definition for wiki_validate_replace.
func (t *ValidateReplaceTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_validate_replace",
		mcp.WithDescription(
			"Check whether an exact string occurs exactly once in a knowledge entry. "+
				"Use this to verify a str_replace anchor is unique before applying an edit batch.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
		mcp.WithString("old_str",
			mcp.Required(),
			mcp.Description("Exact string to look for, including whitespace and newlines"),
		),
	)
}

// Handle processes the wiki_validate_replace tool call.
func (t *ValidateReplaceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	oldStr := req.GetString("old_str", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}
	if oldStr == "" {
		return mcp.NewToolResultError("'old_str' is required"), nil
	}

	text, err := t.store.GetText(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load entry: %v", err)), nil
	}

	v := textmerge.ValidateStrReplace(text, oldStr)
	if !v.Valid {
		return mcp.NewToolResultText(fmt.Sprintf("Not valid: %s (matches: %d)", v.Error, v.MatchCount)), nil
	}
	return mcp.NewToolResultText("Valid: exactly one match found."), nil
}
