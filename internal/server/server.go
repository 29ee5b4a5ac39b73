// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the wiki store and injects it
// into the tools/prompts/resources that depend on it. No business logic
// lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/wikimerge/wikimerge/internal/prompts"
	"github.com/wikimerge/wikimerge/internal/resources"
	"github.com/wikimerge/wikimerge/internal/wiki"
	"github.com/wikimerge/wikimerge/internal/wikitools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the wiki store's database
// connection and must be called on shutdown (typically via defer).
func New() (*server.MCPServer, func(), error) {
	store, err := wiki.New(wiki.DefaultConfig())
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening wiki store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	s := server.NewMCPServer(
		"wikimerge",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Read path ---

	viewTool := wikitools.NewViewTool(store)
	s.AddTool(viewTool.Definition(), viewTool.Handle)

	getTool := wikitools.NewGetEntryTool(store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	structureTool := wikitools.NewStructureTool(store)
	s.AddTool(structureTool.Definition(), structureTool.Handle)

	documentTool := wikitools.NewDocumentTool(store)
	s.AddTool(documentTool.Definition(), documentTool.Handle)

	historyTool := wikitools.NewHistoryTool(store)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	// --- Merge path ---

	validateTool := wikitools.NewValidateReplaceTool(store)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	applyTool := wikitools.NewApplyEditsTool(store)
	s.AddTool(applyTool.Definition(), applyTool.Handle)

	// --- Entry lifecycle ---

	createTool := wikitools.NewCreateEntryTool(store)
	s.AddTool(createTool.Definition(), createTool.Handle)

	deleteTool := wikitools.NewDeleteEntryTool(store)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	// --- Prompts ---

	mergePrompt := prompts.NewMergePrompt()
	s.AddPrompt(mergePrompt.Definition(), mergePrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// serverInstructions returns the system-level guidance sent to connecting
// clients. It encodes the merge discipline: view first, unique anchors,
// all-or-nothing batches.
func serverInstructions() string {
	return `wikimerge is a tenant-scoped knowledge wiki with safe, agent-driven text merging.

Editing discipline:
- Always call wiki_view before proposing edits; str_replace anchors and insert
  line numbers refer to that exact line-numbered rendering.
- str_replace requires old_str to match exactly once, including whitespace and
  newlines. If the match is ambiguous, add surrounding context until it is unique.
- insert places text before the given 1-based line; lastLine+1 appends.
- Edit batches are all-or-nothing: one invalid operation rejects the whole batch
  and leaves the entry untouched. The error names the offending operation — fix
  that edit and retry.
- Every committed edit snapshots the previous version to history first; nothing
  is ever lost.`
}
