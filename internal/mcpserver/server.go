// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Smart Notes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/checksum"
	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/store"
)

const contentFormatURI = "smartnotes://content-format"

// Server wraps the MCP server with Smart Notes tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
	query *query.Engine
	codec *codec.Codec
}

// New creates a new MCP server with all Smart Notes tools registered.
func New(st *store.Store, q *query.Engine, c *codec.Codec) *Server {
	s := &Server{store: st, query: q, codec: c}

	s.mcp = server.NewMCPServer(
		"Smart Notes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles, content and label names. "+
			"Returns matching notes with the matched substrings per note."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly (default false)")),
		mcp.WithBoolean("whole_words", mcp.Description("Match whole words only (default false)")),
		mcp.WithBoolean("include_labels", mcp.Description("Also match label names (default true)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("filter_notes",
		mcp.WithDescription("Filter notes by date range, label presence and word count. "+
			"Omitted criteria are not applied."),
		mcp.WithString("from", mcp.Description("RFC 3339 lower date bound (inclusive)")),
		mcp.WithString("to", mcp.Description("RFC 3339 upper date bound (inclusive)")),
		mcp.WithString("date_type", mcp.Enum("created", "updated"), mcp.Description("Timestamp the date range applies to")),
		mcp.WithBoolean("has_labels", mcp.Description("Only notes with (true) or without (false) labels")),
		mcp.WithNumber("min_words", mcp.Description("Minimum word count")),
		mcp.WithNumber("max_words", mcp.Description("Maximum word count")),
	), s.filterNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its label names and etag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Content MUST follow the content format "+
			"contract; read it via get_content_contract or the "+contentFormatURI+" resource."),
		mcp.WithString("title", mcp.Description("Note title (default \"Untitled Note\")")),
		mcp.WithString("content", mcp.Description("Marked-up note content")),
		mcp.WithArray("label_ids", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Existing label ids")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Update a note. Omitted fields are unchanged. "+
			"Pass the etag from read_note to reject conflicting updates."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New marked-up content")),
		mcp.WithArray("label_ids", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Replacement label ids")),
		mcp.WithString("etag", mcp.Description("ETag the note must still have")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("list_labels",
		mcp.WithDescription("List all labels in creation order."),
	), s.listLabels)

	s.mcp.AddTool(mcp.NewTool("create_label",
		mcp.WithDescription("Create a label."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Label name (1-100 characters)")),
		mcp.WithString("color", mcp.Required(), mcp.Description("#rrggbb colour")),
	), s.createLabel)

	s.mcp.AddTool(mcp.NewTool("export_notes",
		mcp.WithDescription("Export all notes and labels as a backup document."),
		mcp.WithString("format", mcp.Enum("json", "markdown", "csv"), mcp.Description("Export format (default json)")),
	), s.exportNotes)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the note content format contract. "+
			"Call this before creating or updating notes."),
	), s.getContentContract)

	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Content Format Contract",
			mcp.WithResourceDescription("Markup accepted in note content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteView is a note as returned to MCP clients.
type noteView struct {
	models.Note
	Labels []string `json:"labels"`
	ETag   string   `json:"etag"`
}

func (s *Server) view(n models.Note) noteView {
	b, _ := json.Marshal(n)
	names := []string{}
	for _, l := range s.store.GetLabelsByIDs(n.LabelIDs) {
		names = append(names, l.Name)
	}
	return noteView{Note: n, Labels: names, ETag: checksum.ETag(b)}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// stringArg returns a string argument and whether it was supplied.
func stringArg(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key].(string)
	return v, ok
}

func labelIDsArg(req mcp.CallToolRequest) (*[]string, error) {
	if _, ok := req.GetArguments()["label_ids"]; !ok {
		return nil, nil
	}
	ids := req.GetStringSlice("label_ids", nil)
	if err := validation.Validate(ids, validation.Each(validation.Required)); err != nil {
		return nil, fmt.Errorf("label_ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return &ids, nil
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := query.SearchOptions{
		IncludeLabels: req.GetBool("include_labels", true),
		CaseSensitive: req.GetBool("case_sensitive", false),
		WholeWords:    req.GetBool("whole_words", false),
	}
	return jsonResult(s.query.SearchNotesAdvanced(q, opts)), nil
}

func (s *Server) filterNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := models.DefaultSearchFilters()
	args := req.GetArguments()

	for key, dst := range map[string]**time.Time{"from": &f.DateRange.Start, "to": &f.DateRange.End} {
		if v, ok := stringArg(req, key); ok && v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s: must be an RFC 3339 time", key)), nil
			}
			*dst = &t
		}
	}
	if v, ok := stringArg(req, "date_type"); ok && v != "" {
		if err := validation.Validate(v, validation.In(string(models.DateCreated), string(models.DateUpdated))); err != nil {
			return mcp.NewToolResultError("date_type: " + err.Error()), nil
		}
		f.DateRange.Type = models.DateField(v)
	}
	if _, ok := args["has_labels"]; ok {
		b := req.GetBool("has_labels", false)
		f.HasLabels = &b
	}
	for key, dst := range map[string]**int{"min_words": &f.WordCount.Min, "max_words": &f.WordCount.Max} {
		if _, ok := args[key]; ok {
			n := int(req.GetFloat(key, 0))
			if n < 0 {
				return mcp.NewToolResultError(key + ": must be non-negative"), nil
			}
			*dst = &n
		}
	}

	notes := s.query.FilterNotesAdvanced(f)
	return jsonResult(map[string]any{"notes": notes, "total": len(notes)}), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.GetNoteByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(s.view(n)), nil
}

func (s *Server) createNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, _ := stringArg(req, "title")
	ids, err := labelIDsArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := s.store.CreateNote(strings.TrimSpace(title))
	upd := store.NoteUpdate{LabelIDs: ids}
	if content, ok := stringArg(req, "content"); ok {
		upd.Content = &content
	}
	if upd.Content != nil || upd.LabelIDs != nil {
		s.store.UpdateNote(id, upd)
	}
	n, _ := s.store.GetNoteByID(id)
	return jsonResult(s.view(n)), nil
}

func (s *Server) updateNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var upd store.NoteUpdate
	if v, ok := stringArg(req, "title"); ok {
		upd.Title = &v
	}
	if v, ok := stringArg(req, "content"); ok {
		upd.Content = &v
	}
	if upd.LabelIDs, err = labelIDsArg(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	etag, _ := stringArg(req, "etag")
	match := func(n models.Note) bool {
		if etag == "" {
			return true
		}
		b, _ := json.Marshal(n)
		return checksum.MatchETag(etag, b)
	}
	n, err := s.store.UpdateNoteIf(id, upd, match)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("etag mismatch: note changed since it was read"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.view(n)), nil
}

func (s *Server) listLabels(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Labels()), nil
}

func (s *Server) createLabel(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color, err := req.RequireString("color")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(1, 100)); err != nil {
		return mcp.NewToolResultError("name: " + err.Error()), nil
	}
	if err := validation.Validate(color, validation.Match(models.HexColor).Error("must be a #rrggbb colour")); err != nil {
		return mcp.NewToolResultError("color: " + err.Error()), nil
	}
	id := s.store.CreateLabel(name, color)
	l, _ := s.store.GetLabelByID(id)
	return jsonResult(l), nil
}

func (s *Server) exportNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := codec.ParseFormat(req.GetString("format", string(codec.FormatJSON)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, labels := s.store.Snapshot()
	out, err := s.codec.Export(format, notes, labels)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) getContentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
