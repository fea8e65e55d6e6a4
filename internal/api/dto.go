package api

import "github.com/nberglund/othala/internal/audit"

// CreateFileRequest is the request body for creating a file.
// AddFrontmatter defaults to true when omitted.
type CreateFileRequest struct {
	Path           string `json:"file_path"`
	Content        string `json:"content"`
	AddFrontmatter *bool  `json:"add_frontmatter"`
}

// UpdateFileRequest is the request body for replacing a file's content.
type UpdateFileRequest struct {
	Content string `json:"content"`
}

// PatchFileRequest is the request body for targeted insertion. An empty
// Heading means append to the end of the file; Position defaults to
// "after".
type PatchFileRequest struct {
	Content  string `json:"content"`
	Heading  string `json:"heading,omitempty"`
	Position string `json:"position,omitempty"`
}

// BatchGetRequest is the request body for reading several files at once.
type BatchGetRequest struct {
	Paths []string `json:"file_paths"`
}

// AuditResponse wraps recent audit log entries.
type AuditResponse struct {
	Entries []audit.Entry `json:"entries"`
	Count   int           `json:"count"`
}
