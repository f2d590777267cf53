package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager enforces a directory allow-list for operator-supplied files such as
// tier definitions and decision reports. It stores canonical absolute
// directory paths and checks that requested paths resolve inside them.
type Manager struct {
	allowedDirs []string
}

// ErrNotAllowed indicates the requested path is outside the allow-list roots.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// NewManager constructs a security manager for the given directories.
// Directories are canonicalized (absolute + EvalSymlinks) and validated.
func NewManager(allowDirs []string) (*Manager, error) {
	canonical := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		real, err := canonicalize(d)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("security: stat %q: %w", real, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("security: allow-list entry is not a directory: %q", real)
		}
		canonical = append(canonical, real)
	}
	return &Manager{allowedDirs: canonical}, nil
}

// AllowedDirectories returns the canonical allow-list roots.
func (m *Manager) AllowedDirectories() []string {
	out := make([]string, len(m.allowedDirs))
	copy(out, m.allowedDirs)
	return out
}

// ValidateConfig returns an error when no allow-list entries are configured.
func (m *Manager) ValidateConfig() error {
	if len(m.allowedDirs) == 0 {
		return errors.New("security: no allowed directories configured")
	}
	return nil
}

// ValidateReadPath ensures input is an existing regular file with one of exts
// inside an allowed directory, and returns its canonical path.
func (m *Manager) ValidateReadPath(input string, exts ...string) (string, error) {
	if err := checkExt(input, exts); err != nil {
		return "", err
	}
	real, err := canonicalize(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}
	if !m.contains(real) {
		return "", ErrNotAllowed
	}
	return real, nil
}

// ValidateWritePath ensures input names a file with one of exts whose parent
// directory exists inside an allowed directory. The file itself may be absent;
// an existing file must not be a directory or a link leading outside.
func (m *Manager) ValidateWritePath(input string, exts ...string) (string, error) {
	if err := checkExt(input, exts); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		info, err := os.Stat(real)
		if err != nil {
			return "", fmt.Errorf("security: stat: %w", err)
		}
		if info.IsDir() || !m.contains(real) {
			return "", ErrNotAllowed
		}
		return real, nil
	}

	parent, err := canonicalize(filepath.Dir(abs))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	target := filepath.Join(parent, filepath.Base(abs))
	if !m.contains(target) {
		return "", ErrNotAllowed
	}
	return target, nil
}

// contains reports whether real lies strictly below one of the roots.
func (m *Manager) contains(real string) bool {
	for _, root := range m.allowedDirs {
		// filepath.Rel returns a path starting with ".." when outside.
		rel, err := filepath.Rel(root, real)
		if err != nil || rel == "." || rel == "" {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("security: resolve abs for %q: %w", p, err)
	}
	// EvalSymlinks so that symlinked roots cannot be used to escape later.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
	}
	return filepath.Clean(real), nil
}

func checkExt(input string, exts []string) error {
	if strings.TrimSpace(input) == "" {
		return ErrNotAllowed
	}
	if len(exts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(input))
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return nil
		}
	}
	return ErrUnsupportedExtension
}
