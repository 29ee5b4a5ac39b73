package wikitools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// StructureTool handles the wiki_structure MCP tool.
type StructureTool struct {
	store *wiki.Store
}

// NewStructureTool creates a StructureTool with the given wiki store.
func NewStructureTool(store *wiki.Store) *StructureTool {
	return &StructureTool{store: store}
}

// Definition returns the MCP tool definition for wiki_structure.
func (t *StructureTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_structure",
		mcp.WithDescription(
			"Show the wiki tree below an entry: titles and IDs of all descendants. "+
				"Use this to decide where new information belongs before creating or editing entries.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("Root entry of the subtree to list"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
	)
}

// Handle processes the wiki_structure tool call.
func (t *StructureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	tree, err := t.store.Tree(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build structure: %v", err)), nil
	}

	var b strings.Builder
	renderTree(&b, tree, 0)
	return mcp.NewToolResultText(b.String()), nil
}

// renderTree writes a YAML-ish indented listing of the wiki tree.
func renderTree(b *strings.Builder, node *wiki.TreeNode, depth int) {
	fmt.Fprintf(b, "%s- %s (id: %s)\n", strings.Repeat("  ", depth), node.Title, node.ID)
	for i := range node.Children {
		renderTree(b, &node.Children[i], depth+1)
	}
}

// ─── DocumentTool ────────────────────────────────────────────────────────────

// DocumentTool handles the wiki_document MCP tool.
type DocumentTool struct {
	store *wiki.Store
}

// NewDocumentTool creates a DocumentTool.
func NewDocumentTool(store *wiki.Store) *DocumentTool {
	return &DocumentTool{store: store}
}

// Definition returns the MCP tool definition for wiki_document.
func (t *DocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("wiki_document",
		mcp.WithDescription(
			"Render an entry and all its descendants as one combined markdown document.",
		),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("Root entry of the document"),
		),
		mcp.WithString("tenant_id",
			mcp.Required(),
			mcp.Description("Tenant the entry belongs to"),
		),
	)
}

// Handle processes the wiki_document tool call.
func (t *DocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := req.GetString("entry_id", "")
	tenantID := req.GetString("tenant_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("'entry_id' is required"), nil
	}
	if tenantID == "" {
		return mcp.NewToolResultError("'tenant_id' is required"), nil
	}

	doc, err := t.store.BuildDocument(entryID, tenantID)
	if errors.Is(err, wiki.ErrEntryNotFound) {
		return mcp.NewToolResultError("knowledge entry not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build document: %v", err)), nil
	}

	return mcp.NewToolResultText(doc), nil
}
