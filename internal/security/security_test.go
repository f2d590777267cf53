package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	// Ensure real path (EvalSymlinks on macOS can change /var -> /private/var)
	real, err := filepath.EvalSymlinks(d)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	return real
}

func mustManager(t *testing.T, dirs ...string) *Manager {
	t.Helper()
	m, err := NewManager(dirs)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManager_ValidateConfig(t *testing.T) {
	dir := mustTempDir(t)
	m := mustManager(t, dir, " ")
	if err := m.ValidateConfig(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	if got := len(m.AllowedDirectories()); got != 1 {
		t.Fatalf("allowed dirs len = %d, want 1", got)
	}
	if err := mustManager(t).ValidateConfig(); err == nil {
		t.Fatalf("expected error for empty allow-list")
	}
}

func TestNewManager_RejectsFileRoot(t *testing.T) {
	f := filepath.Join(mustTempDir(t), "f")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewManager([]string{f}); err == nil {
		t.Fatalf("expected error for non-directory root")
	}
}

func TestValidateReadPath_AllowsWithinRoot(t *testing.T) {
	root := mustTempDir(t)
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fpath := filepath.Join(sub, "tiers.yaml")
	if err := os.WriteFile(fpath, []byte("order: [core]"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := mustManager(t, root).ValidateReadPath(fpath, ".yaml", ".yml")
	if err != nil {
		t.Fatalf("validate path: %v", err)
	}
	if got != fpath {
		t.Fatalf("got %q, want %q", got, fpath)
	}
}

func TestValidateReadPath_Errors(t *testing.T) {
	root := mustTempDir(t)
	outside := filepath.Join(mustTempDir(t), "escape.yaml")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	m := mustManager(t, root)

	if _, err := m.ValidateReadPath(outside, ".yaml"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("outside: got %v, want ErrNotAllowed", err)
	}
	if _, err := m.ValidateReadPath(filepath.Join(root, "missing.yaml"), ".yaml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v, want ErrNotFound", err)
	}
	if _, err := m.ValidateReadPath(filepath.Join(root, "bad.txt"), ".yaml"); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("ext: got %v, want ErrUnsupportedExtension", err)
	}
	if _, err := m.ValidateReadPath("", ".yaml"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("empty: got %v, want ErrNotAllowed", err)
	}
}

func TestValidateReadPath_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root := mustTempDir(t)
	target := filepath.Join(mustTempDir(t), "target.yaml")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(root, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := mustManager(t, root).ValidateReadPath(link, ".yaml"); err == nil {
		t.Fatalf("expected error for symlink escape")
	}
}

func TestValidateWritePath(t *testing.T) {
	root := mustTempDir(t)
	m := mustManager(t, root)

	want := filepath.Join(root, "decisions.xlsx")
	got, err := m.ValidateWritePath(want, ".xlsx", ".csv")
	if err != nil {
		t.Fatalf("validate write path: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if _, err := m.ValidateWritePath(filepath.Join(root, "..", "escape.csv"), ".csv"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("escape: got %v, want ErrNotAllowed", err)
	}
	if _, err := m.ValidateWritePath(filepath.Join(root, "nodir", "x.csv"), ".csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing parent: got %v, want ErrNotFound", err)
	}
	if _, err := m.ValidateWritePath(filepath.Join(root, "x.json"), ".csv"); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("ext: got %v, want ErrUnsupportedExtension", err)
	}
}
