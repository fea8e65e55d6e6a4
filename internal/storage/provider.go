// Package storage defines the vault file-system abstraction.
package storage

import "github.com/nberglund/othala/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root; implementations must reject traversal
// outside it.
type Provider interface {
	// List returns metadata for .md files under dir (relative to vault
	// root, "" for the root itself), sorted by path. When recursive is
	// false only direct children are returned.
	List(dir string, recursive bool) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Stat returns metadata for the regular file at path.
	Stat(path string) (models.FileInfo, error)
}
