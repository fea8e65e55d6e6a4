package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/audit"
	"github.com/nberglund/othala/internal/checksum"
	"github.com/nberglund/othala/internal/frontmatter"
	"github.com/nberglund/othala/internal/markdown"
)

// Receipt is the payload of a successful mutation.
type Receipt struct {
	Path    string `json:"file_path"`
	Message string `json:"message"`
	Size    int    `json:"size,omitempty"`
}

// CreateFile writes a new file, failing if the target already exists.
// When addFrontmatter is set and the content carries no block of its own,
// a block with the creation timestamp is prepended.
func (s *Service) CreateFile(_ context.Context, path, content string, addFrontmatter bool) (Receipt, error) {
	_, err := s.store.Stat(path)
	if err == nil {
		return Receipt{}, fmt.Errorf("file %s: %w", path, apperr.ErrAlreadyExists)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Receipt{}, err
	}

	if addFrontmatter {
		var defaults frontmatter.Block
		defaults.Set("date", s.now().Format("2006-01-02 15:04"))
		content = frontmatter.Ensure(content, defaults)
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return Receipt{}, err
	}
	s.record(audit.Entry{Op: "create", Path: path, Bytes: int64(len(data)), Checksum: checksum.Sum(data)})
	return Receipt{Path: path, Message: "file created: " + path, Size: len(data)}, nil
}

// UpdateFile replaces the content of an existing file. When the new
// content carries no frontmatter but the file does, the existing block is
// re-attached so metadata survives a body rewrite.
func (s *Service) UpdateFile(_ context.Context, path, content string) (Receipt, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return Receipt{}, err
	}

	if !strings.HasPrefix(content, "---") {
		if block, _ := frontmatter.Parse(string(existing)); !block.Empty() {
			content = frontmatter.Render(block, content)
		}
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return Receipt{}, err
	}
	s.record(audit.Entry{Op: "update", Path: path, Bytes: int64(len(data)), Checksum: checksum.Sum(data)})
	return Receipt{Path: path, Message: "file updated: " + path, Size: len(data)}, nil
}

// AppendToFile adds content at the end of an existing file, separated by
// a blank line.
func (s *Service) AppendToFile(_ context.Context, path, content string) (Receipt, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return Receipt{}, err
	}

	updated := strings.TrimRight(string(existing), "\n") + "\n\n" + content
	data := []byte(updated)
	if err := s.store.Write(path, data); err != nil {
		return Receipt{}, err
	}
	s.record(audit.Entry{Op: "append", Path: path, Bytes: int64(len(data)), Checksum: checksum.Sum(data)})
	return Receipt{Path: path, Message: "content appended to: " + path, Size: len(data)}, nil
}

// PatchFile inserts content relative to the first heading matching
// heading. The frontmatter block, if any, is carried through untouched;
// on HeadingNotFound the file is left as it was.
func (s *Service) PatchFile(_ context.Context, path, content, heading, position string) (Receipt, error) {
	pos, err := markdown.ParsePosition(position)
	if err != nil {
		return Receipt{}, err
	}

	existing, err := s.store.Read(path)
	if err != nil {
		return Receipt{}, err
	}

	head, body := frontmatter.Cut(string(existing))
	patched, err := markdown.Insert(body, heading, content, pos)
	if err != nil {
		return Receipt{}, err
	}

	data := []byte(head + patched)
	if err := s.store.Write(path, data); err != nil {
		return Receipt{}, err
	}
	s.record(audit.Entry{Op: "patch", Path: path, Bytes: int64(len(data)), Checksum: checksum.Sum(data)})
	return Receipt{
		Path:    path,
		Message: fmt.Sprintf("content inserted %s heading %q in %s", pos, heading, path),
		Size:    len(data),
	}, nil
}

// DeleteFile permanently removes a file. The confirm gate is checked
// before any filesystem access: without it no mutation happens at all.
func (s *Service) DeleteFile(_ context.Context, path string, confirm bool) (Receipt, error) {
	if !confirm {
		return Receipt{}, fmt.Errorf("delete requires confirm=true: %w", apperr.ErrConfirmationRequired)
	}
	if err := s.store.Delete(path); err != nil {
		return Receipt{}, err
	}
	s.record(audit.Entry{Op: "delete", Path: path})
	return Receipt{Path: path, Message: "file deleted: " + path}, nil
}
