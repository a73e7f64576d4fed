package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EscapeError reports a path that resolves outside the workspace
type EscapeError struct {
	Path string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("path %q is outside the workspace", e.Path)
}

// IsEscape reports whether err is, or wraps, an EscapeError
func IsEscape(err error) bool {
	var ee *EscapeError
	return errors.As(err, &ee)
}

// Root is an absolute directory fixed at startup. It is read-only after
// New and safe for concurrent use.
type Root struct {
	path string

	ensureOnce sync.Once
	ensureErr  error
}

// New creates a root from dir. A leading ~ expands to the home directory.
// The directory itself is created lazily by EnsureRoot.
func New(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("workspace directory cannot be empty")
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("expand workspace directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace directory: %w", err)
	}
	return &Root{path: abs}, nil
}

// Path returns the absolute root directory
func (r *Root) Path() string {
	return r.path
}

// EnsureRoot creates the root directory once. Later calls return the
// first outcome.
func (r *Root) EnsureRoot() error {
	r.ensureOnce.Do(func() {
		if err := os.MkdirAll(r.path, 0o755); err != nil {
			r.ensureErr = fmt.Errorf("create workspace: %w", err)
		}
	})
	return r.ensureErr
}

// Resolve maps a guest path to an absolute host path inside the root.
// An empty path or "." is the root itself.
func (r *Root) Resolve(p string) (string, error) {
	candidate := p
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(r.path, candidate)
	}
	candidate = filepath.Clean(candidate)

	if !within(r.path, candidate) {
		return "", &EscapeError{Path: p}
	}

	target, err := realAncestor(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	realRoot, err := realAncestor(r.path)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	if !within(realRoot, target) {
		return "", &EscapeError{Path: p}
	}
	return candidate, nil
}

// Rel expresses an absolute path under the root relative to it,
// using forward slashes.
func (r *Root) Rel(abs string) string {
	rel, err := filepath.Rel(r.path, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// IsRoot reports whether abs is the root directory itself
func (r *Root) IsRoot(abs string) bool {
	return filepath.Clean(abs) == r.path
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// maxLinkHops bounds how many dangling links realAncestor follows.
const maxLinkHops = 40

var errLinkLoop = errors.New("too many levels of symbolic links")

// realAncestor resolves symlinks in the longest existing prefix of p and
// re-appends the part that does not exist yet. A dangling link in the
// missing part is followed to where it would create its target.
func realAncestor(p string) (string, error) {
	return resolveLinks(p, 0)
}

func resolveLinks(p string, hops int) (string, error) {
	var missing []string
	current := p
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, reverse(missing)...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if info, lerr := os.Lstat(current); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			if hops >= maxLinkHops {
				return "", errLinkLoop
			}
			target, err := linkTarget(current)
			if err != nil {
				return "", err
			}
			resolved, err := resolveLinks(target, hops+1)
			if err != nil {
				return "", err
			}
			return filepath.Join(append([]string{resolved}, reverse(missing)...)...), nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return p, nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

// linkTarget reads the link at p. Relative targets are taken against the
// real directory holding the link.
func linkTarget(p string) (string, error) {
	target, err := os.Readlink(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target), nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(p))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, target), nil
}

func reverse(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
