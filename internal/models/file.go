// Package models defines the domain types for Othala.
package models

import "time"

// FileInfo is the lightweight representation of a vault file returned by
// listing and scanning operations.
type FileInfo struct {
	Path    string    `json:"file_path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}
