package wikitools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/textmerge"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// ApplyEditsTool handles the wiki_apply_edits MCP tool — the write path
// of the merge engine. A batch is one coherent agent turn: either every
// operation applies and the result is committed with a history snapshot,
// or nothing is persisted at all.
type ApplyEditsTool struct {
	store *wiki.Store
}

// NewApplyEditsTool creates an ApplyEditsTool with the given wiki store.
func NewApplyEditsTool(store *wiki.Store) *ApplyEditsTool {
	return &ApplyEditsTool{store: store}
}

// Definition returns the MCP tool definition for wiki_apply_edits.
func (t *ApplyEditsTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_apply_edits",
		mcp.WithDescription(
			"Apply an ordered batch of edit operations to a knowledge entry. "+
				"Operations run sequentially, each against the result of the previous one. "+
				"If any operation fails the whole batch is rejected and the entry is unchanged. "+
				"On success the previous version is saved to history before the new text is committed.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
		mcp.WithString("edits",
			mcp.Required(),
			mcp.Description(
				`JSON edit batch: {"edits": [{"op": "str_replace", "old_str": "...", "new_str": "..."} | `+
					`{"op": "insert", "line_number": N, "text": "..."}]}. `+
					`old_str must match exactly once; line_number is 1-based and may be lastLine+1 to append.`,
			),
		),
		mcp.WithString("user_id",
			mcp.Description("User on whose behalf the edit is made (recorded in history)"),
		),
	)
}

// Handle processes the wiki_apply_edits tool call.
func (t *ApplyEditsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	editsJSON := req.GetString("edits", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}
	if editsJSON == "" {
		return mcp.NewToolResultError("'edits' is required"), nil
	}

	ops, err := textmerge.ParseBatch([]byte(editsJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ops) == 0 {
		return mcp.NewToolResultText("No edit operations provided; entry unchanged."), nil
	}

	text, err := t.store.GetText(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load entry: %v", err)), nil
	}

	// Run the whole batch against an in-memory copy first. A failure
	// here discards the intermediate text — nothing has been persisted.
	result, err := textmerge.ApplyOperations(text, ops)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	userID := req.GetString("user_id", "")
	if err := t.store.SaveText(entryID, tenantID, userID, result.Text); err != nil {
		if errors.Is(err, wiki.ErrEntryNotFound) {
			return mcp.NewToolResultError("knowledge entry not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to save entry: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Applied %d edit operation(s) to entry %s. Previous version saved to history.",
		result.AppliedCount, entryID,
	)), nil
}
