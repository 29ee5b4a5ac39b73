package wikitools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// HistoryTool handles the wiki_history MCP tool.
type HistoryTool struct {
	store *wiki.Store
}

// NewHistoryTool creates a HistoryTool with the given wiki store.
func NewHistoryTool(store *wiki.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for wiki_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_history",
		mcp.WithDescription(
			"List the version history of a knowledge entry, newest first. "+
				"Each snapshot captures the full entry state immediately before a committed edit.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum snapshots to return (default: 20)"),
		),
	)
}

// Handle processes the wiki_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	snapshots, err := t.store.History(entryID, tenantID, intArg(req, "limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}

	if len(snapshots) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No history for entry %s.", entryID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History for entry %s (%d snapshot(s), newest first):\n\n", entryID, len(snapshots))
	for _, sn := range snapshots {
		savedBy := "unknown"
		if sn.SavedBy != nil {
			savedBy = *sn.SavedBy
		}
		fmt.Fprintf(&b, "#%d  %s  by %s\n  %s\n", sn.ID, sn.CreatedAt, savedBy, truncate(sn.Text, 200))
	}

	return mcp.NewToolResultText(b.String()), nil
}
