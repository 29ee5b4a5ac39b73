package wikitools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wikimerge/wikimerge/internal/wiki"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestStore creates a wiki.Store in a temp directory for testing.
func newTestStore(t *testing.T) *wiki.Store {
	t.Helper()
	store, err := wiki.New(wiki.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedEntry creates a wiki entry with the given text and returns its ID.
func seedEntry(t *testing.T, store *wiki.Store, tenantID, title, text string) string {
	t.Helper()
	entry, err := store.CreateEntry(wiki.CreateEntryParams{
		TenantID: tenantID,
		Title:    title,
		Text:     text,
	})
	if err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	return entry.ID
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// mustNotError fails the test if the handler returned a Go error or an
// error-flagged tool result.
func mustNotError(t *testing.T, r *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if r != nil && r.IsError {
		t.Fatalf("tool result is an error: %s", resultText(r))
	}
}

// mustToolError fails the test unless the result is an error-flagged
// tool result containing wantSub.
func mustToolError(t *testing.T, r *mcp.CallToolResult, err error, wantSub string) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if r == nil || !r.IsError {
		t.Fatalf("expected tool error containing %q, got success: %s", wantSub, resultText(r))
	}
	if !strings.Contains(resultText(r), wantSub) {
		t.Errorf("tool error = %q, want substring %q", resultText(r), wantSub)
	}
}

// ─── ViewTool ────────────────────────────────────────────────────────────────

func TestViewTool_Definition(t *testing.T) {
	tool := NewViewTool(newTestStore(t))
	def := tool.Definition()

	if def.Name != "wiki_view" {
		t.Errorf("tool name = %q, want %q", def.Name, "wiki_view")
	}
	props := def.InputSchema.Properties
	for _, p := range []string{"entry_id", "tenant_id", "start_line", "end_line"} {
		if _, ok := props[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestViewTool_NumberedOutput(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Contacts", "Hello World\nThis is a test\nGoodbye World")
	tool := NewViewTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)

	want := "   1| Hello World\n   2| This is a test\n   3| Goodbye World"
	if got := resultText(result); got != want {
		t.Errorf("view = %q, want %q", got, want)
	}
}

func TestViewTool_LineRange(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "one\ntwo\nthree")
	tool := NewViewTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":   id,
		"tenant_id":  "t",
		"start_line": float64(2),
		"end_line":   float64(2),
	}))
	mustNotError(t, result, err)

	if got, want := resultText(result), "   2| two"; got != want {
		t.Errorf("view = %q, want %q", got, want)
	}
}

func TestViewTool_RangeError(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "one\ntwo")
	tool := NewViewTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":   id,
		"tenant_id":  "t",
		"start_line": float64(5),
	}))
	mustToolError(t, result, err, "Invalid startLine: 5. Text has 2 lines.")
}

func TestViewTool_EntryNotFound(t *testing.T) {
	tool := NewViewTool(newTestStore(t))
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  "missing",
		"tenant_id": "t",
	}))
	mustToolError(t, result, err, "knowledge entry not found")
}

func TestViewTool_MissingArgs(t *testing.T) {
	tool := NewViewTool(newTestStore(t))
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustToolError(t, result, err, "'entry_id' is required")
}

// ─── ValidateReplaceTool ─────────────────────────────────────────────────────

func TestValidateReplaceTool(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "Hello\nHello\nWorld")
	tool := NewValidateReplaceTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"old_str":   "World",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "exactly one match") {
		t.Errorf("unexpected verdict: %s", resultText(result))
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"old_str":   "Hello",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "Multiple matches found (2)") {
		t.Errorf("unexpected verdict: %s", resultText(result))
	}
}

// ─── ApplyEditsTool ──────────────────────────────────────────────────────────

func TestApplyEditsTool_Definition(t *testing.T) {
	tool := NewApplyEditsTool(newTestStore(t))
	def := tool.Definition()

	if def.Name != "wiki_apply_edits" {
		t.Errorf("tool name = %q, want %q", def.Name, "wiki_apply_edits")
	}
	required := def.InputSchema.Required
	for _, want := range []string{"entry_id", "tenant_id", "edits"} {
		found := false
		for _, r := range required {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("%q should be required", want)
		}
	}
}

func TestApplyEditsTool_BatchCommitsWithHistory(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Contacts", "Contact: John Doe\nPhone: 123-456\nEmail: x")
	tool := NewApplyEditsTool(store)

	edits := `{"edits": [
		{"op": "str_replace", "old_str": "John Doe", "new_str": "Jane Smith"},
		{"op": "str_replace", "old_str": "123-456", "new_str": "789-012"}
	]}`

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"user_id":   "user-1",
		"edits":     edits,
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "Applied 2 edit operation(s)") {
		t.Errorf("unexpected response: %s", resultText(result))
	}

	text, err := store.GetText(id, "t")
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if want := "Contact: Jane Smith\nPhone: 789-012\nEmail: x"; text != want {
		t.Errorf("stored text = %q, want %q", text, want)
	}

	history, err := store.History(id, "t", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(history))
	}
	if history[0].Text != "Contact: John Doe\nPhone: 123-456\nEmail: x" {
		t.Errorf("snapshot should hold the pre-edit text, got %q", history[0].Text)
	}
}

func TestApplyEditsTool_FailedBatchLeavesStoreUntouched(t *testing.T) {
	store := newTestStore(t)
	original := "Hello\nHello\nWorld"
	id := seedEntry(t, store, "t", "Notes", original)
	tool := NewApplyEditsTool(store)

	// First op is fine, second is ambiguous — the whole batch must fail
	// and nothing may reach persistence.
	edits := `{"edits": [
		{"op": "str_replace", "old_str": "World", "new_str": "Earth"},
		{"op": "str_replace", "old_str": "Hello", "new_str": "Hi"}
	]}`

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"edits":     edits,
	}))
	mustToolError(t, result, err, "Multiple matches found (2)")
	if !strings.Contains(resultText(result), `"old_str":"Hello"`) {
		t.Errorf("error should name the offending operation, got: %s", resultText(result))
	}

	text, _ := store.GetText(id, "t")
	if text != original {
		t.Errorf("stored text changed to %q after failed batch", text)
	}
	history, _ := store.History(id, "t", 0)
	if len(history) != 0 {
		t.Errorf("failed batch must not create history snapshots, got %d", len(history))
	}
}

func TestApplyEditsTool_InsertAppends(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "Line 1\nLine 2\nLine 3")
	tool := NewApplyEditsTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"edits":     `{"edits": [{"op": "insert", "line_number": 4, "text": "New Line 4"}]}`,
	}))
	mustNotError(t, result, err)

	text, _ := store.GetText(id, "t")
	if want := "Line 1\nLine 2\nLine 3\nNew Line 4"; text != want {
		t.Errorf("stored text = %q, want %q", text, want)
	}
}

func TestApplyEditsTool_RejectsUnknownOp(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "text")
	tool := NewApplyEditsTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"edits":     `{"edits": [{"op": "append", "text": "x"}]}`,
	}))
	mustToolError(t, result, err, `unknown operation type "append"`)
}

func TestApplyEditsTool_RejectsMalformedJSON(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "text")
	tool := NewApplyEditsTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"edits":     `{"edits": [`,
	}))
	mustToolError(t, result, err, "parsing edit batch")
}

func TestApplyEditsTool_EntryNotFound(t *testing.T) {
	tool := NewApplyEditsTool(newTestStore(t))
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  "missing",
		"tenant_id": "t",
		"edits":     `{"edits": [{"op": "insert", "line_number": 1, "text": "x"}]}`,
	}))
	mustToolError(t, result, err, "knowledge entry not found")
}

func TestApplyEditsTool_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Notes", "unchanged")
	tool := NewApplyEditsTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
		"edits":     `{"edits": []}`,
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "entry unchanged") {
		t.Errorf("unexpected response: %s", resultText(result))
	}
	if history, _ := store.History(id, "t", 0); len(history) != 0 {
		t.Errorf("empty batch must not snapshot, got %d rows", len(history))
	}
}

// ─── Entry tools ─────────────────────────────────────────────────────────────

func TestCreateAndGetEntryTools(t *testing.T) {
	store := newTestStore(t)
	create := NewCreateEntryTool(store)

	result, err := create.Handle(context.Background(), makeReq(map[string]interface{}{
		"tenant_id": "t",
		"title":     "Familie",
		"text":      "Zwei Kinder.",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, `Entry created: "Familie"`) {
		t.Errorf("unexpected response: %s", text)
	}

	// Pull the generated ID out of the response.
	idx := strings.Index(text, "ID: ")
	if idx < 0 {
		t.Fatalf("response should include the new ID: %s", text)
	}
	id := strings.TrimSpace(text[idx+4:])

	get := NewGetEntryTool(store)
	result, err = get.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "# Familie") || !strings.Contains(resultText(result), "Zwei Kinder.") {
		t.Errorf("unexpected entry dump: %s", resultText(result))
	}
}

func TestDeleteEntryTool(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Doomed", "x")
	tool := NewDeleteEntryTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustToolError(t, result, err, "knowledge entry not found")
}

// ─── Structure / document / history ──────────────────────────────────────────

func TestStructureTool(t *testing.T) {
	store := newTestStore(t)
	root := seedEntry(t, store, "t", "Wiki", "")
	child, err := store.CreateEntry(wiki.CreateEntryParams{
		TenantID: "t", ParentID: root, Title: "Orte",
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	tool := NewStructureTool(store)
	result, handleErr := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  root,
		"tenant_id": "t",
	}))
	mustNotError(t, result, handleErr)

	text := resultText(result)
	if !strings.Contains(text, "- Wiki (id: "+root+")") {
		t.Errorf("missing root line: %s", text)
	}
	if !strings.Contains(text, "  - Orte (id: "+child.ID+")") {
		t.Errorf("missing indented child line: %s", text)
	}
}

func TestDocumentTool(t *testing.T) {
	store := newTestStore(t)
	root := seedEntry(t, store, "t", "Wiki", "Intro.")
	if _, err := store.CreateEntry(wiki.CreateEntryParams{
		TenantID: "t", ParentID: root, Title: "Familie", Text: "Zwei Kinder.",
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	tool := NewDocumentTool(store)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  root,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "# Wiki") || !strings.Contains(text, "# Familie") {
		t.Errorf("document missing headings: %s", text)
	}
}

func TestHistoryTool(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Log", "v1")
	if err := store.SaveText(id, "t", "user-1", "v2"); err != nil {
		t.Fatalf("SaveText: %v", err)
	}

	tool := NewHistoryTool(store)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "1 snapshot(s)") {
		t.Errorf("unexpected header: %s", text)
	}
	if !strings.Contains(text, "by user-1") || !strings.Contains(text, "v1") {
		t.Errorf("snapshot line missing author or prior text: %s", text)
	}
}

func TestHistoryTool_Empty(t *testing.T) {
	store := newTestStore(t)
	id := seedEntry(t, store, "t", "Fresh", "x")

	tool := NewHistoryTool(store)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"entry_id":  id,
		"tenant_id": "t",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "No history") {
		t.Errorf("unexpected response: %s", resultText(result))
	}
}
