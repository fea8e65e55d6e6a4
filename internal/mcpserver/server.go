// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Othala vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/vault"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *vault.Service
	root string
}

// New creates a new MCP server with all vault tools registered.
// root is the absolute vault directory, reported by the info resource.
func New(svc *vault.Service, root string) *Server {
	s := &Server{svc: svc, root: root}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_vault_files",
		mcp.WithDescription("List all markdown files in the vault root directory."),
	), s.listVaultFiles)

	s.mcp.AddTool(mcp.NewTool("list_directory_files",
		mcp.WithDescription("List markdown files in a specific vault directory."),
		mcp.WithString("directory_path", mcp.Required(), mcp.Description("Directory path relative to the vault root")),
	), s.listDirectoryFiles)

	s.mcp.AddTool(mcp.NewTool("get_file_content",
		mcp.WithDescription("Read the full content of a markdown file."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root (e.g. folder/note.md)")),
	), s.getFileContent)

	s.mcp.AddTool(mcp.NewTool("batch_get_files",
		mcp.WithDescription("Read several markdown files at once. Files that cannot be read are reported per path instead of failing the batch."),
		mcp.WithArray("file_paths", mcp.Required(),
			mcp.Description("File paths relative to the vault root"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.batchGetFiles)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Search for text across all markdown files in the vault."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly (default false)")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("get_recent_files",
		mcp.WithDescription("List the most recently modified files in the vault."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of files to return (default 10)")),
		mcp.WithNumber("days", mcp.Description("Only include files modified within this many days (default 7)")),
	), s.getRecentFiles)

	s.mcp.AddTool(mcp.NewTool("get_daily_note",
		mcp.WithDescription("Get the daily note for a date. A missing note is reported with exists=false, not as an error."),
		mcp.WithString("date", mcp.Description("Date in YYYY-MM-DD format (default today)")),
	), s.getDailyNote)

	s.mcp.AddTool(mcp.NewTool("search_by_tag",
		mcp.WithDescription("Find files carrying a tag, either inline (#tag) or in the frontmatter tags field."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to search for, with or without the leading #")),
	), s.searchByTag)

	s.mcp.AddTool(mcp.NewTool("create_file",
		mcp.WithDescription("Create a new markdown file. Fails if the file already exists."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content for the new file")),
		mcp.WithBoolean("add_frontmatter", mcp.Description("Prepend a frontmatter block with the creation date (default true)")),
	), s.createFile)

	s.mcp.AddTool(mcp.NewTool("update_file",
		mcp.WithDescription("Replace the content of an existing file. Existing frontmatter is preserved unless the new content carries its own block."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New markdown content")),
	), s.updateFile)

	s.mcp.AddTool(mcp.NewTool("append_to_file",
		mcp.WithDescription("Append content to the end of an existing file, separated by a blank line."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to append")),
	), s.appendToFile)

	s.mcp.AddTool(mcp.NewTool("patch_file",
		mcp.WithDescription("Insert content relative to a heading inside an existing file."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to insert")),
		mcp.WithString("heading", mcp.Required(), mcp.Description("Heading text to target (first match, case-insensitive)")),
		mcp.WithString("position", mcp.Description("Where to insert relative to the heading: before or after (default after)")),
	), s.patchFile)

	s.mcp.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Permanently delete a file. Requires confirm=true; without it nothing is touched."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("File path relative to the vault root")),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to actually delete")),
	), s.deleteFile)

	// Resource: vault info.
	s.mcp.AddResource(
		mcp.NewResource("vault://info", "Vault Info",
			mcp.WithResourceDescription("Location and layout of the vault this server operates on."),
			mcp.WithMIMEType("application/json"),
		),
		s.readVaultInfoResource,
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

// toolError formats a vault error with its stable kind prefix so callers
// can classify failures without parsing prose.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", apperr.Kind(err), err))
}

func toolJSON(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listVaultFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.svc.ListVaultFiles(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) listDirectoryFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("directory_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.svc.ListDirectoryFiles(ctx, dir)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) getFileContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fc, err := s.svc.GetFileContent(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(fc), nil
}

func (s *Server) batchGetFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := req.GetStringSlice("file_paths", nil)
	if len(paths) == 0 {
		return mcp.NewToolResultError("file_paths is required"), nil
	}
	result, err := s.svc.BatchGetFiles(ctx, paths)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	caseSensitive := req.GetBool("case_sensitive", false)
	result, err := s.svc.SearchVault(ctx, query, caseSensitive)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) getRecentFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)
	days := req.GetInt("days", 0)
	result, err := s.svc.GetRecentFiles(ctx, limit, days)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) getDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	note, err := s.svc.GetDailyNote(ctx, date)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(note), nil
}

func (s *Server) searchByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.svc.SearchByTag(ctx, tag)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) createFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	addFrontmatter := req.GetBool("add_frontmatter", true)
	receipt, err := s.svc.CreateFile(ctx, path, content, addFrontmatter)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(receipt), nil
}

func (s *Server) updateFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	receipt, err := s.svc.UpdateFile(ctx, path, content)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(receipt), nil
}

func (s *Server) appendToFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	receipt, err := s.svc.AppendToFile(ctx, path, content)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(receipt), nil
}

func (s *Server) patchFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	heading, err := req.RequireString("heading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	position := req.GetString("position", "after")
	receipt, err := s.svc.PatchFile(ctx, path, content, heading, position)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(receipt), nil
}

func (s *Server) deleteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	confirm := req.GetBool("confirm", false)
	receipt, err := s.svc.DeleteFile(ctx, path, confirm)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(receipt), nil
}

func (s *Server) readVaultInfoResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	info := map[string]string{
		"root":        s.root,
		"description": "Markdown knowledge vault served over MCP",
	}
	out, _ := json.MarshalIndent(info, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vault://info",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
