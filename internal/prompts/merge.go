// Package prompts implements MCP prompt handlers for the wiki merge
// workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// MergePrompt handles the wiki-merge MCP prompt.
// It guides the AI through the view-then-edit merge workflow: interpret
// the user's request as semantic intent, inspect the entry, and propose
// an edit batch whose anchors are provably unique.
type MergePrompt struct{}

// NewMergePrompt creates a MergePrompt.
func NewMergePrompt() *MergePrompt {
	return &MergePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *MergePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("wiki-merge",
		mcp.WithPromptDescription(
			"Merge new information into a knowledge entry. "+
				"Guides the assistant to view the entry, interpret your request as a semantic change, "+
				"and apply precise edits that match the document's existing style.",
		),
		mcp.WithArgument("entry_id",
			mcp.ArgumentDescription("ID of the knowledge entry to edit"),
		),
		mcp.WithArgument("tenant_id",
			mcp.ArgumentDescription("Tenant the entry belongs to"),
		),
		mcp.WithArgument("change_request",
			mcp.ArgumentDescription("What should change, described as intent (e.g. 'the new contact person is X')"),
		),
	)
}

// Handle processes the wiki-merge prompt request.
func (p *MergePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	entryID := ""
	tenantID := ""
	changeRequest := "(ask me what should change)"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["entry_id"]; ok && v != "" {
			entryID = v
		}
		if v, ok := args["tenant_id"]; ok && v != "" {
			tenantID = v
		}
		if v, ok := args["change_request"]; ok && v != "" {
			changeRequest = v
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Merge change into entry %s", entryID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Merge the following change into knowledge entry '%s' (tenant '%s'):\n\n"+
						"%s\n\n"+
						"Treat my request as SEMANTIC INTENT, not literal text to copy — adapt the change "+
						"to the document's existing format, structure, and style.\n\n"+
						"Workflow:\n"+
						"1. Call `wiki_view` to see the current document with line numbers\n"+
						"2. Analyze its format conventions: headings, lists, key-value pairs, indentation\n"+
						"3. Locate where the change belongs; use `wiki_structure` if it might belong in a different entry\n"+
						"4. Build the edit batch:\n"+
						"   - `str_replace` for updating existing information — old_str must match EXACTLY once, "+
						"including whitespace and newlines; add surrounding context until the match is unique "+
						"(`wiki_validate_replace` lets you check)\n"+
						"   - `insert` only for completely new content — line_number is 1-based, lastLine+1 appends\n"+
						"5. Call `wiki_apply_edits` with the batch. Be surgical: change only what's necessary\n\n"+
						"If the batch is rejected, read the error — it names the offending operation — "+
						"correct that edit and retry.",
					entryID, tenantID, changeRequest,
				)),
			},
		},
	}, nil
}
