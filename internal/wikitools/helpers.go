// Package wikitools provides the MCP tool handlers for the knowledge
// wiki merge server.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (wiki.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Validation failures (bad line numbers, ambiguous matches, missing
// entries) come back as tool result errors so the calling agent can read
// them and retry with a corrected operation; they are not system faults.
package wikitools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// truncate shortens s to max characters with an ellipsis marker.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
