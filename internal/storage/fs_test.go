package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nberglund/othala/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, nil)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := s.Delete("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestListFlatAndRecursive(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("not md"), 0o644)

	flat, err := s.List("", false)
	if err != nil {
		t.Fatalf("List flat: %v", err)
	}
	if len(flat) != 1 || flat[0].Path != "a.md" {
		t.Errorf("flat = %+v, want just a.md", flat)
	}

	all, err := s.List("", true)
	if err != nil {
		t.Fatalf("List recursive: %v", err)
	}
	if len(all) != 2 || all[0].Path != "a.md" || all[1].Path != "sub/b.md" {
		t.Errorf("recursive = %+v", all)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempVault(t)
	if _, err := s.List("nope", false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListIgnoreGlobs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, []string{".obsidian/**", "templates/**"})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	_ = s.Write("keep.md", []byte("k"))
	_ = s.Write(".obsidian/workspace.md", []byte("w"))
	_ = s.Write("templates/daily.md", []byte("d"))

	all, err := s.List("", true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Path != "keep.md" {
		t.Errorf("list = %+v, want just keep.md", all)
	}
}

func TestNewFS_BadIgnorePattern(t *testing.T) {
	if _, err := NewFS(t.TempDir(), []string{"[bad"}); err == nil {
		t.Error("expected error for invalid glob pattern")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	for _, p := range []string{"../../etc/passwd", "../outside.md"} {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrPathEscape) {
			t.Errorf("Read(%q) err = %v, want ErrPathEscape", p, err)
		}
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrPathEscape) {
			t.Errorf("Write(%q) err = %v, want ErrPathEscape", p, err)
		}
	}
}

func TestInvalidPaths(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"", "   ", "/etc/shadow"} {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestTraversalInsideVaultAllowed(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("sub/x.md", []byte("x"))
	// Resolves back inside the root, so it is accepted.
	got, err := s.Read("sub/../sub/x.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "x" {
		t.Errorf("content = %q", got)
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Verify that overwriting leaves no temp files behind
	// (the rename is atomic on POSIX).
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".othala-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("s.md", []byte("12345"))
	info, err := s.Stat("s.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Path != "s.md" || info.Size != 5 {
		t.Errorf("info = %+v", info)
	}
	if _, err := s.Stat("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/othala-does-not-exist-"+t.Name(), nil)
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "othala-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name(), nil)
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
