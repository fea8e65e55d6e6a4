package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nberglund/othala/internal/storage"
	"github.com/nberglund/othala/internal/testutil"
	"github.com/nberglund/othala/internal/vault"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	svc := vault.NewService(store)
	return New(svc, dir), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_vault_files":
		result, err = srv.listVaultFiles(ctx, req)
	case "list_directory_files":
		result, err = srv.listDirectoryFiles(ctx, req)
	case "get_file_content":
		result, err = srv.getFileContent(ctx, req)
	case "batch_get_files":
		result, err = srv.batchGetFiles(ctx, req)
	case "search_vault":
		result, err = srv.searchVault(ctx, req)
	case "get_recent_files":
		result, err = srv.getRecentFiles(ctx, req)
	case "get_daily_note":
		result, err = srv.getDailyNote(ctx, req)
	case "search_by_tag":
		result, err = srv.searchByTag(ctx, req)
	case "create_file":
		result, err = srv.createFile(ctx, req)
	case "update_file":
		result, err = srv.updateFile(ctx, req)
	case "append_to_file":
		result, err = srv.appendToFile(ctx, req)
	case "patch_file":
		result, err = srv.patchFile(ctx, req)
	case "delete_file":
		result, err = srv.deleteFile(ctx, req)
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

func decodeResult(t *testing.T, r *mcp.CallToolResult, v any) {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool returned error: %s", resultText(r))
	}
	if err := json.Unmarshal([]byte(resultText(r)), v); err != nil {
		t.Fatalf("decode result: %v\n%s", err, resultText(r))
	}
}

func TestCreateAndGetFile(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_file", map[string]interface{}{
		"file_path":       "test.md",
		"content":         "# Test\nHello",
		"add_frontmatter": false,
	})
	var receipt vault.Receipt
	decodeResult(t, r, &receipt)
	if receipt.Path != "test.md" {
		t.Errorf("receipt = %+v", receipt)
	}

	r = callTool(t, srv, "get_file_content", map[string]interface{}{
		"file_path": "test.md",
	})
	var fc vault.FileContent
	decodeResult(t, r, &fc)
	if fc.Content != "# Test\nHello" || fc.Checksum == "" {
		t.Errorf("payload = %+v", fc)
	}
}

func TestCreateFileDuplicate(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("dup.md", []byte("x"))

	r := callTool(t, srv, "create_file", map[string]interface{}{
		"file_path": "dup.md",
		"content":   "y",
	})
	if !r.IsError {
		t.Fatal("expected error for duplicate create")
	}
	if !strings.HasPrefix(resultText(r), "already_exists:") {
		t.Errorf("error = %q, want already_exists prefix", resultText(r))
	}
}

func TestListVaultFiles(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", []byte("a"))
	_ = store.Write("sub/b.md", []byte("b"))

	r := callTool(t, srv, "list_vault_files", map[string]interface{}{})
	var result vault.ListResult
	decodeResult(t, r, &result)
	if result.Count != 1 || result.Files[0] != "a.md" {
		t.Errorf("result = %+v", result)
	}

	r = callTool(t, srv, "list_directory_files", map[string]interface{}{"directory_path": "sub"})
	var dir vault.DirListResult
	decodeResult(t, r, &dir)
	if dir.Count != 1 || dir.Files[0] != "sub/b.md" {
		t.Errorf("result = %+v", dir)
	}
}

func TestBatchGetFiles(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", []byte("A"))

	r := callTool(t, srv, "batch_get_files", map[string]interface{}{
		"file_paths": []any{"a.md", "missing.md"},
	})
	var result vault.BatchResult
	decodeResult(t, r, &result)
	if result.Count != 2 || result.Successful != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Files["a.md"].Content != "A" || result.Files["missing.md"].Error == "" {
		t.Errorf("files = %+v", result.Files)
	}
}

func TestSearchVault(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("00-inbox/a.md", []byte("# Title\n\nhello automation"))

	r := callTool(t, srv, "search_vault", map[string]interface{}{"query": "automation"})
	var result vault.SearchResult
	decodeResult(t, r, &result)
	if result.FileCount != 1 || result.Matches[0].Path != "00-inbox/a.md" {
		t.Errorf("result = %+v", result)
	}
}

func TestGetRecentFiles(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("fresh.md", []byte("x"))

	r := callTool(t, srv, "get_recent_files", map[string]interface{}{"limit": float64(5)})
	var result vault.RecentResult
	decodeResult(t, r, &result)
	if result.Count != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestGetDailyNote_Missing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_daily_note", map[string]interface{}{"date": "2024-01-01"})
	var note vault.DailyNote
	decodeResult(t, r, &note)
	if note.Exists {
		t.Errorf("note = %+v", note)
	}
	if note.Path != "00-inbox/01-today/24-01-01 - Mon.md" {
		t.Errorf("path = %q", note.Path)
	}
}

func TestSearchByTag(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("t.md", []byte("working on #go today"))

	r := callTool(t, srv, "search_by_tag", map[string]interface{}{"tag": "#go"})
	var result vault.TagResult
	decodeResult(t, r, &result)
	if result.Tag != "go" || result.Count != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestUpdateAndAppend(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("u.md", []byte("v1"))

	r := callTool(t, srv, "update_file", map[string]interface{}{
		"file_path": "u.md",
		"content":   "v2",
	})
	if r.IsError {
		t.Fatalf("update error: %s", resultText(r))
	}

	r = callTool(t, srv, "append_to_file", map[string]interface{}{
		"file_path": "u.md",
		"content":   "more",
	})
	if r.IsError {
		t.Fatalf("append error: %s", resultText(r))
	}

	data, _ := store.Read("u.md")
	if string(data) != "v2\n\nmore" {
		t.Errorf("content = %q", data)
	}
}

func TestPatchFile(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("p.md", []byte("# Title\n\n## Tasks\n\n- one\n"))

	r := callTool(t, srv, "patch_file", map[string]interface{}{
		"file_path": "p.md",
		"content":   "- two",
		"heading":   "Tasks",
	})
	if r.IsError {
		t.Fatalf("patch error: %s", resultText(r))
	}
	data, _ := store.Read("p.md")
	if string(data) != "# Title\n\n## Tasks\n- two\n\n- one\n" {
		t.Errorf("content = %q", data)
	}

	r = callTool(t, srv, "patch_file", map[string]interface{}{
		"file_path": "p.md",
		"content":   "x",
		"heading":   "Ghost",
	})
	if !r.IsError || !strings.HasPrefix(resultText(r), "heading_not_found:") {
		t.Errorf("error = %q, want heading_not_found prefix", resultText(r))
	}
}

func TestDeleteFile_ConfirmGate(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("d.md", []byte("data"))

	r := callTool(t, srv, "delete_file", map[string]interface{}{"file_path": "d.md"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "confirmation_required:") {
		t.Errorf("error = %q, want confirmation_required prefix", resultText(r))
	}
	if _, err := store.Read("d.md"); err != nil {
		t.Error("file must survive an unconfirmed delete")
	}

	r = callTool(t, srv, "delete_file", map[string]interface{}{
		"file_path": "d.md",
		"confirm":   true,
	})
	if r.IsError {
		t.Fatalf("confirmed delete error: %s", resultText(r))
	}
	if _, err := store.Read("d.md"); err == nil {
		t.Error("file still present after confirmed delete")
	}
}

func TestGetFileContent_Traversal(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_file_content", map[string]interface{}{"file_path": "../escape.md"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "path_escape:") {
		t.Errorf("error = %q, want path_escape prefix", resultText(r))
	}
}
