// Package resources implements MCP resource handlers for the wiki store.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (wiki://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// Handler manages wiki resource endpoints.
type Handler struct {
	store *wiki.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *wiki.Store) *Handler {
	return &Handler{store: store}
}

// StatsResource returns the MCP resource definition for store statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"wiki://stats",
		"Wiki Store Statistics",
		mcp.WithResourceDescription("Entry, snapshot, and tenant counts for the wiki store"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current store statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
