package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/checksum"
)

// ListResult holds the vault-root file listing.
type ListResult struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// DirListResult holds a directory file listing.
type DirListResult struct {
	Directory string   `json:"directory"`
	Files     []string `json:"files"`
	Count     int      `json:"count"`
}

// FileContent is the payload of a single-file read.
type FileContent struct {
	Path     string `json:"file_path"`
	Content  string `json:"content"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

// BatchEntry is one file's outcome in a batch read.
type BatchEntry struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult maps each requested path to its content or error.
type BatchResult struct {
	Files      map[string]BatchEntry `json:"files"`
	Count      int                   `json:"count"`
	Successful int                   `json:"successful"`
}

// DailyNote is the payload of a daily-note lookup. Content is empty and
// Exists false when the note has not been created yet; that is not an
// error.
type DailyNote struct {
	Date    string `json:"date"`
	Path    string `json:"file_path"`
	Content string `json:"content,omitempty"`
	Exists  bool   `json:"exists"`
}

// ListVaultFiles lists .md files directly under the vault root.
func (s *Service) ListVaultFiles(_ context.Context) (ListResult, error) {
	infos, err := s.store.List("", false)
	if err != nil {
		return ListResult{}, err
	}
	files := make([]string, len(infos))
	for i, fi := range infos {
		files[i] = fi.Path
	}
	return ListResult{Files: files, Count: len(files)}, nil
}

// ListDirectoryFiles lists .md files directly under dir.
func (s *Service) ListDirectoryFiles(_ context.Context, dir string) (DirListResult, error) {
	infos, err := s.store.List(dir, false)
	if err != nil {
		return DirListResult{}, err
	}
	files := make([]string, len(infos))
	for i, fi := range infos {
		files[i] = fi.Path
	}
	return DirListResult{Directory: dir, Files: files, Count: len(files)}, nil
}

// GetFileContent reads a single file.
func (s *Service) GetFileContent(_ context.Context, path string) (FileContent, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return FileContent{}, err
	}
	return FileContent{
		Path:     path,
		Content:  string(data),
		Size:     len(data),
		Checksum: checksum.Sum(data),
	}, nil
}

// BatchGetFiles reads several files, reporting per-file failures inline
// rather than failing the batch.
func (s *Service) BatchGetFiles(ctx context.Context, paths []string) (BatchResult, error) {
	out := BatchResult{
		Files: make(map[string]BatchEntry, len(paths)),
		Count: len(paths),
	}
	for _, p := range paths {
		fc, err := s.GetFileContent(ctx, p)
		if err != nil {
			out.Files[p] = BatchEntry{Error: err.Error()}
			continue
		}
		out.Files[p] = BatchEntry{Content: fc.Content}
		out.Successful++
	}
	return out, nil
}

// GetDailyNote resolves the daily note for date (YYYY-MM-DD, empty for
// today) and returns its content when present.
func (s *Service) GetDailyNote(ctx context.Context, date string) (DailyNote, error) {
	day := s.now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return DailyNote{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
		}
		day = parsed
	}

	path := s.daily.Dir + "/" + day.Format(s.daily.Layout) + ".md"
	note := DailyNote{Date: day.Format("2006-01-02"), Path: path}

	fc, err := s.GetFileContent(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return note, nil
		}
		return DailyNote{}, err
	}
	note.Content = fc.Content
	note.Exists = true
	return note, nil
}
