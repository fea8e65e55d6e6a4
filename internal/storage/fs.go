package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to vault directory
	ignore []string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. Paths matching any of the ignore
// globs (doublestar syntax, matched against slash-separated relative
// paths) are excluded from listings.
func NewFS(root string, ignore []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	for _, pat := range ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("storage: invalid ignore pattern: %s", pat)
		}
	}
	return &FS{root: abs, ignore: ignore}, nil
}

// Root returns the absolute vault root directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative file path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", fmt.Errorf("storage: empty path: %w", apperr.ErrInvalidPath)
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, apperr.ErrInvalidPath)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve %s: %w", rel, apperr.ErrInvalidPath)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: %s: %w", rel, apperr.ErrPathEscape)
	}
	return abs, nil
}

// dirPath is safePath with "" permitted, meaning the vault root.
func (f *FS) dirPath(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return f.root, nil
	}
	return f.safePath(rel)
}

func (f *FS) ignored(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pat := range f.ignore {
		if ok, _ := doublestar.Match(pat, slashed); ok {
			return true
		}
	}
	return false
}

// List returns metadata for .md files under dir, sorted by relative path.
func (f *FS) List(dir string, recursive bool) ([]models.FileInfo, error) {
	base, err := f.dirPath(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: directory %s: %w", dir, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: not a directory: %s: %w", dir, apperr.ErrInvalidPath)
	}

	var out []models.FileInfo
	collect := func(p string, fi fs.FileInfo) {
		rel, relErr := filepath.Rel(f.root, p)
		if relErr != nil || f.ignored(rel) {
			return
		}
		out = append(out, models.FileInfo{
			Path:    filepath.ToSlash(rel),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	if recursive {
		err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			fi, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}
			collect(p, fi)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
	} else {
		entries, readErr := os.ReadDir(base)
		if readErr != nil {
			return nil, fmt.Errorf("storage: list: %w", readErr)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			fi, infoErr := e.Info()
			if infoErr != nil {
				continue
			}
			collect(filepath.Join(base, e.Name()), fi)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("storage: not a file: %s: %w", path, apperr.ErrInvalidPath)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".othala-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage: %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("storage: not a file: %s: %w", path, apperr.ErrInvalidPath)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// Stat returns metadata for the regular file at path.
func (f *FS) Stat(path string) (models.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return models.FileInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return models.FileInfo{}, fmt.Errorf("storage: %s: %w", path, apperr.ErrNotFound)
		}
		return models.FileInfo{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return models.FileInfo{}, fmt.Errorf("storage: not a file: %s: %w", path, apperr.ErrInvalidPath)
	}
	rel, _ := filepath.Rel(f.root, abs)
	return models.FileInfo{
		Path:    filepath.ToSlash(rel),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
