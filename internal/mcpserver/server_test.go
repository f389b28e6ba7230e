package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/store"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(nil, nil)
	return New(st, query.New(st), codec.New()), st
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "filter_notes":
		result, err = srv.filterNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "list_labels":
		result, err = srv.listLabels(ctx, req)
	case "create_label":
		result, err = srv.createLabel(ctx, req)
	case "export_notes":
		result, err = srv.exportNotes(ctx, req)
	case "get_content_contract":
		result, err = srv.getContentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	created := decodeResult[noteView](t, callTool(t, srv, "create_note", map[string]interface{}{
		"title":   "Plan",
		"content": "<p>Ship it</p>",
	}))
	if created.ID == "" || created.Title != "Plan" || created.Content != "<p>Ship it</p>" {
		t.Fatalf("created = %+v", created)
	}

	read := decodeResult[noteView](t, callTool(t, srv, "read_note", map[string]interface{}{"id": created.ID}))
	if read.Content != "<p>Ship it</p>" || read.ETag == "" {
		t.Errorf("read = %+v", read)
	}
}

func TestCreateNote_Defaults(t *testing.T) {
	srv, _ := testServer(t)

	created := decodeResult[noteView](t, callTool(t, srv, "create_note", map[string]interface{}{}))
	if created.Title != "Untitled Note" || created.Content != "" || len(created.LabelIDs) != 0 {
		t.Errorf("created = %+v", created)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestUpdateNote_ETag(t *testing.T) {
	srv, _ := testServer(t)
	created := decodeResult[noteView](t, callTool(t, srv, "create_note", map[string]interface{}{"title": "T"}))

	updated := decodeResult[noteView](t, callTool(t, srv, "update_note", map[string]interface{}{
		"id":      created.ID,
		"content": "<p>v2</p>",
		"etag":    created.ETag,
	}))
	if updated.Content != "<p>v2</p>" || updated.Title != "T" {
		t.Errorf("updated = %+v", updated)
	}

	r := callTool(t, srv, "update_note", map[string]interface{}{
		"id":      created.ID,
		"content": "<p>v3</p>",
		"etag":    created.ETag,
	})
	if !r.IsError || !strings.Contains(resultText(r), "etag mismatch") {
		t.Errorf("stale etag result = %q", resultText(r))
	}

	r = callTool(t, srv, "update_note", map[string]interface{}{"id": "ghost", "title": "x"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestLabels(t *testing.T) {
	srv, st := testServer(t)

	r := callTool(t, srv, "create_label", map[string]interface{}{"name": "Work", "color": "blue"})
	if !r.IsError {
		t.Error("expected error for invalid colour")
	}

	created := callTool(t, srv, "create_label", map[string]interface{}{"name": "Work", "color": "#3b82f6"})
	if created.IsError {
		t.Fatalf("create label: %s", resultText(created))
	}
	labels := st.Labels()
	if len(labels) != 1 || labels[0].Name != "Work" {
		t.Fatalf("labels = %+v", labels)
	}

	note := decodeResult[noteView](t, callTool(t, srv, "create_note", map[string]interface{}{
		"title":     "Tagged",
		"label_ids": []interface{}{labels[0].ID},
	}))
	if len(note.Labels) != 1 || note.Labels[0] != "Work" {
		t.Errorf("note labels = %v", note.Labels)
	}

	if text := resultText(callTool(t, srv, "list_labels", map[string]interface{}{})); !strings.Contains(text, "#3b82f6") {
		t.Errorf("list_labels = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, st := testServer(t)
	id := st.CreateNote("Plan")
	content := "<p>Ship the release</p>"
	st.UpdateNote(id, store.NoteUpdate{Content: &content})
	st.CreateNote("Other")

	res := decodeResult[query.Result](t, callTool(t, srv, "search_notes", map[string]interface{}{"query": "ship"}))
	if len(res.Notes) != 1 || res.Notes[0].ID != id {
		t.Fatalf("notes = %+v", res.Notes)
	}
	if hl := res.Highlights[id]; len(hl.Content) != 1 || hl.Content[0] != "Ship" {
		t.Errorf("highlights = %+v", hl)
	}

	res = decodeResult[query.Result](t, callTool(t, srv, "search_notes", map[string]interface{}{
		"query":          "ship",
		"case_sensitive": true,
	}))
	if len(res.Notes) != 0 {
		t.Errorf("case-sensitive notes = %+v", res.Notes)
	}
}

func TestFilterNotes(t *testing.T) {
	srv, st := testServer(t)
	long := "<p>one two three four</p>"
	id := st.CreateNote("Long")
	st.UpdateNote(id, store.NoteUpdate{Content: &long})
	st.CreateNote("Empty")

	type listing struct {
		Total int `json:"total"`
	}
	if got := decodeResult[listing](t, callTool(t, srv, "filter_notes", map[string]interface{}{"min_words": float64(2)})); got.Total != 1 {
		t.Errorf("min_words total = %d, want 1", got.Total)
	}
	if got := decodeResult[listing](t, callTool(t, srv, "filter_notes", map[string]interface{}{"has_labels": false})); got.Total != 2 {
		t.Errorf("has_labels=false total = %d, want 2", got.Total)
	}
	if got := decodeResult[listing](t, callTool(t, srv, "filter_notes", map[string]interface{}{})); got.Total != 2 {
		t.Errorf("no criteria total = %d, want 2", got.Total)
	}

	r := callTool(t, srv, "filter_notes", map[string]interface{}{"from": "last week"})
	if !r.IsError {
		t.Error("expected error for invalid date")
	}
}

func TestExportNotes(t *testing.T) {
	srv, st := testServer(t)
	st.CreateNote("Plan")

	text := resultText(callTool(t, srv, "export_notes", map[string]interface{}{"format": "csv"}))
	if !strings.HasPrefix(text, "Title,Content,Labels,Created,Modified,Word Count\n") {
		t.Errorf("csv = %q", text)
	}

	text = resultText(callTool(t, srv, "export_notes", map[string]interface{}{}))
	if !strings.Contains(text, `"version": "1.0.0"`) {
		t.Errorf("json = %q", text)
	}

	if r := callTool(t, srv, "export_notes", map[string]interface{}{"format": "pdf"}); !r.IsError {
		t.Error("expected error for unknown format")
	}
}

func TestGetContentContract(t *testing.T) {
	srv, _ := testServer(t)

	text := resultText(callTool(t, srv, "get_content_contract", nil))
	if text != ContentFormatContract {
		t.Error("contract text mismatch")
	}
}
