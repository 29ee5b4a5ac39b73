package wikitools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// CreateEntryTool handles the wiki_create_entry MCP tool.
type CreateEntryTool struct {
	store *wiki.Store
}

// NewCreateEntryTool creates a CreateEntryTool with the given wiki store.
func NewCreateEntryTool(store *wiki.Store) *CreateEntryTool {
	return &CreateEntryTool{store: store}
}

// Definition returns the MCP tool definition for wiki_create_entry.
func (t *CreateEntryTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_create_entry",
		mcp.WithDescription(
			"Create a new knowledge entry, optionally as a child of an existing entry. "+
				"Use this only for genuinely new topics — prefer wiki_apply_edits to merge "+
				"new facts into existing entries.",
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Entry title"),
		),
		mcp.WithString("text",
			mcp.Description("Initial text content (default: empty)"),
		),
		mcp.WithString("parent_id",
			mcp.Description("Parent entry ID for placement in the wiki tree"),
		),
		mcp.WithString("user_id",
			mcp.Description("Owning user"),
		),
	)
}

// Handle processes the wiki_create_entry tool call.
func (t *CreateEntryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenantID := req.GetString("tenant_id", "")
	title := req.GetString("title", "")
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	entry, err := t.store.CreateEntry(wiki.CreateEntryParams{
		TenantID: tenantID,
		ParentID: req.GetString("parent_id", ""),
		UserID:   req.GetString("user_id", ""),
		Title:    title,
		Text:     req.GetString("text", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create entry: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Entry created: %q\nID: %s", entry.Title, entry.ID)), nil
}

// ─── GetEntryTool ────────────────────────────────────────────────────────────

// GetEntryTool handles the wiki_get_entry MCP tool.
type GetEntryTool struct {
	store *wiki.Store
}

// NewGetEntryTool creates a GetEntryTool.
func NewGetEntryTool(store *wiki.Store) *GetEntryTool {
	return &GetEntryTool{store: store}
}

// Definition returns the MCP tool definition for wiki_get_entry.
func (t *GetEntryTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_get_entry",
		mcp.WithDescription("Get a knowledge entry's metadata and raw text (without line numbers)."),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
	)
}

// Handle processes the wiki_get_entry tool call.
func (t *GetEntryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	entry, err := t.store.GetEntry(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load entry: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", entry.Title)
	fmt.Fprintf(&b, "ID: %s\n", entry.ID)
	if entry.ParentID != nil {
		fmt.Fprintf(&b, "Parent: %s\n", *entry.ParentID)
	}
	fmt.Fprintf(&b, "Updated: %s\n\n", entry.UpdatedAt)
	b.WriteString(entry.Text)

	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteEntryTool ─────────────────────────────────────────────────────────

// DeleteEntryTool handles the wiki_delete_entry MCP tool.
type DeleteEntryTool struct {
	store *wiki.Store
}

// NewDeleteEntryTool creates a DeleteEntryTool.
func NewDeleteEntryTool(store *wiki.Store) *DeleteEntryTool {
	return &DeleteEntryTool{store: store}
}

// Definition returns the MCP tool definition for wiki_delete_entry.
func (t *DeleteEntryTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_delete_entry",
		mcp.WithDescription(
			"Soft-delete a knowledge entry. Its history snapshots are kept.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("ID of the knowledge entry"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
	)
}

// Handle processes the wiki_delete_entry tool call.
func (t *DeleteEntryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	if err := t.store.DeleteEntry(entryID, tenantID); err != nil {
		if errors.Is(err, wiki.ErrEntryNotFound) {
			return mcp.NewToolResultError("knowledge entry not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete entry: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Entry %s deleted.", entryID)), nil
}
