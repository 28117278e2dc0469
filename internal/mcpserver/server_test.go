package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/temporal"
	"github.com/starford/dagaz/internal/tracker"
)

var mcpNow = time.Date(2022, 5, 3, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB) {
	t.Helper()

	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "dagaz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	p := parser.New(temporal.NewResolver(nil), func() time.Time { return mcpNow })
	svc := tracker.New(store, p, func() time.Time { return mcpNow })
	return New(store, db, svc, p), store, db
}

func seedRecord(t *testing.T, store storage.Provider, db *index.DB, p *parser.Parser, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := index.IndexFile(db, p, path, []byte(content)); err != nil {
		t.Fatalf("seed index %s: %v", path, err)
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_records":
		result, err = srv.listRecords(ctx, req)
	case "read_record":
		result, err = srv.readRecord(ctx, req)
	case "get_record":
		result, err = srv.getRecord(ctx, req)
	case "search_records":
		result, err = srv.searchRecords(ctx, req)
	case "complete_record":
		result, err = srv.completeRecord(ctx, req)
	case "push_record":
		result, err = srv.pushRecord(ctx, req)
	case "get_record_contract":
		result, err = srv.getRecordContract(ctx, req)
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

func TestReadRecord(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-task.yaml", "event: Readable\ndate: 2022-05-01\n")

	r := callTool(t, srv, "read_record", map[string]interface{}{"path": "2022-05-01-task.yaml"})
	if !strings.Contains(resultText(r), "event: Readable") {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestReadRecordMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_record", map[string]interface{}{"path": "2022-05-01-task.yaml"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
}

func TestGetRecord(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-task.yaml", "event: Resolvable\ndate: 2022-05-01\ndue: 1 week\n")

	id := parser.Identifier("2022-05-01-task.yaml")
	r := callTool(t, srv, "get_record", map[string]interface{}{"identifier": id})
	if r.IsError {
		t.Fatalf("get_record failed: %s", resultText(r))
	}

	var view recordView
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Event != "Resolvable" {
		t.Errorf("event = %q", view.Event)
	}
	if view.Due != "2022-05-08" {
		t.Errorf("due = %q, want 2022-05-08", view.Due)
	}
}

func TestListRecords(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-task.yaml", "event: Open\ndate: 2022-05-01\n")
	seedRecord(t, store, db, srv.p, "2022-05-02-task.yaml", "event: Done\ndate: 2022-05-02\ncompleted: true\n")

	r := callTool(t, srv, "list_records", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Open") || strings.Contains(text, "Done") {
		t.Errorf("default listing should exclude completed: %s", text)
	}

	r = callTool(t, srv, "list_records", map[string]interface{}{"all": true})
	text = resultText(r)
	if !strings.Contains(text, "Done") {
		t.Errorf("all=true listing should include completed: %s", text)
	}
}

func TestSearchRecords(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-note.yaml", "event: Contains quasar somewhere\ndate: 2022-05-01\n")

	r := callTool(t, srv, "search_records", map[string]interface{}{"query": "quasar"})
	if !strings.Contains(resultText(r), "2022-05-01-note.yaml") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestCompleteRecord(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-task.yaml", "event: Finish\ndate: 2022-05-01\n")

	id := parser.Identifier("2022-05-01-task.yaml")
	r := callTool(t, srv, "complete_record", map[string]interface{}{"identifier": id})
	if r.IsError {
		t.Fatalf("complete failed: %s", resultText(r))
	}

	var view recordView
	_ = json.Unmarshal([]byte(resultText(r)), &view)
	if !view.Completed {
		t.Error("record not completed")
	}

	row, err := db.GetByIdentifier(id)
	if err != nil {
		t.Fatal(err)
	}
	if !row.Completed {
		t.Error("index row not updated")
	}
}

func TestPushRecord(t *testing.T) {
	srv, store, db := testServer(t)
	seedRecord(t, store, db, srv.p, "2022-05-01-task.yaml", "event: Defer\ndate: 2022-05-01\ndue: 2022-05-02\n")

	id := parser.Identifier("2022-05-01-task.yaml")
	r := callTool(t, srv, "push_record", map[string]interface{}{"identifier": id, "due": "1 week"})
	if r.IsError {
		t.Fatalf("push failed: %s", resultText(r))
	}

	var view recordView
	_ = json.Unmarshal([]byte(resultText(r)), &view)
	if view.Due != "2022-05-10" {
		t.Errorf("due = %q, want 2022-05-10 (1 week from today)", view.Due)
	}
}

func TestGetRecordContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_record_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Record Format Contract") {
		t.Error("contract text missing")
	}
}
