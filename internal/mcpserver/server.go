// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Dagaz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/tracker"
)

// Server wraps the MCP server with Dagaz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
	svc   *tracker.Service
	p     *parser.Parser
}

// New creates a new MCP server with all Dagaz tools registered.
func New(store storage.Provider, db *index.DB, svc *tracker.Service, p *parser.Parser) *Server {
	s := &Server{store: store, db: db, svc: svc, p: p}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List tracked records. By default only relevant, uncompleted records are returned."),
		mcp.WithString("type", mcp.Description("Filter by record type (task, prediction, note, ...)")),
		mcp.WithString("tag", mcp.Description("Filter by tag")),
		mcp.WithBoolean("all", mcp.Description("Include completed and no-longer-relevant records")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("read_record",
		mcp.WithDescription("Read the raw content of a record file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the record file")),
	), s.readRecord)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Get a record with all temporal fields resolved, looked up by its identifier."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("10-character record identifier")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through record events and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("complete_record",
		mcp.WithDescription("Mark a record as completed, stamping the completion time."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("10-character record identifier")),
	), s.completeRecord)

	s.mcp.AddTool(mcp.NewTool("push_record",
		mcp.WithDescription("Push a record's due date. The expression is resolved relative to today, "+
			"and the old due date is kept in the record's history."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("10-character record identifier")),
		mcp.WithString("due", mcp.Required(), mcp.Description("New due date or temporal expression (e.g. \"1 week\")")),
	), s.pushRecord)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical Dagaz record format contract. "+
			"Call this before creating record files to ensure correct structure."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://record-format", "Record Format Contract",
			mcp.WithResourceDescription("Canonical record file format that all records must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
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

// recordView is the JSON shape returned by record-valued tools.
type recordView struct {
	Identifier         string   `json:"identifier"`
	Path               string   `json:"path"`
	Type               string   `json:"type"`
	Event              string   `json:"event"`
	Created            string   `json:"created,omitempty"`
	Due                string   `json:"due,omitempty"`
	ExpectedCompletion string   `json:"expected_completion,omitempty"`
	IrrelevantAfter    string   `json:"irrelevant_after,omitempty"`
	IrrelevantBefore   string   `json:"irrelevant_before,omitempty"`
	StillRelevant      bool     `json:"still_relevant"`
	Completed          bool     `json:"completed"`
	CompletedAt        string   `json:"completed_at,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	RankPriority       int      `json:"rank_priority"`
}

func viewOf(rec *models.Record) recordView {
	return recordView{
		Identifier:         rec.Identifier,
		Path:               rec.Path,
		Type:               string(rec.Type),
		Event:              rec.Event,
		Created:            rec.Created.String(),
		Due:                rec.Due.String(),
		ExpectedCompletion: rec.ExpectedCompletion.String(),
		IrrelevantAfter:    rec.IrrelevantAfter.String(),
		IrrelevantBefore:   rec.IrrelevantBefore.String(),
		StillRelevant:      rec.StillRelevant,
		Completed:          rec.Completed,
		CompletedAt:        rec.CompletedAt.String(),
		Tags:               rec.Tags,
		RankPriority:       rec.RankPriority,
	}
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := index.ListQuery{
		Type:       req.GetString("type", ""),
		Tag:        req.GetString("tag", ""),
		IncludeAll: req.GetBool("all", false),
	}
	rows, _, err := s.db.ListRecords(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Find(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(viewOf(rec), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) completeRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Complete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.reindex(rec.Path)
	out, _ := json.MarshalIndent(viewOf(rec), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pushRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	due, err := req.RequireString("due")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.PushDue(ctx, id, due)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.reindex(rec.Path)
	out, _ := json.MarshalIndent(viewOf(rec), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}

// reindex refreshes the index row for a record that was just rewritten.
func (s *Server) reindex(path string) {
	data, err := s.store.Read(path)
	if err != nil {
		return
	}
	_ = index.IndexFile(s.db, s.p, path, data)
}
