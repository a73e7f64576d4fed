package capabilities

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// File kinds reported by listFiles
const (
	KindFile      = "file"
	KindDirectory = "directory"
	KindSymlink   = "symlink"
	KindOther     = "other"
)

// WriteResult describes a completed write
type WriteResult struct {
	Path  string
	Bytes int
}

// ToMap converts the result to the guest shape
func (w *WriteResult) ToMap() map[string]any {
	return map[string]any{"path": w.Path, "bytes": w.Bytes}
}

// ListOptions controls listFiles
type ListOptions struct {
	Recursive bool
	Pattern   string // doublestar pattern matched against the listed name
}

// FileEntry is one listed name
type FileEntry struct {
	Name string
	Kind string
}

// ReadFile returns a UTF-8 text file from the workspace
func (t *Toolset) ReadFile(ctx context.Context, p string) (string, error) {
	abs, err := t.root.Resolve(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, unwrapPathError(err))
	}
	if info.IsDir() {
		return "", fmt.Errorf("read %s: %w", p, ErrIsDirectory)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, unwrapPathError(err))
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: %w (%s)", p, ErrBinaryFile, mimetype.Detect(data).String())
	}
	return string(data), nil
}

// WriteFile writes text verbatim or serialises a structured value by the
// file extension (.yaml/.yml, .toml, otherwise JSON). Parent directories
// are created.
func (t *Toolset) WriteFile(ctx context.Context, p string, content any) (*WriteResult, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: content", ErrMissingArgument)
	}
	abs, err := t.root.Resolve(p)
	if err != nil {
		return nil, err
	}
	if t.root.IsRoot(abs) {
		return nil, fmt.Errorf("write %s: %w", p, ErrIsDirectory)
	}

	data, err := encodeContent(abs, content)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", p, err)
	}
	if err := t.root.EnsureRoot(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("write %s: %w", p, unwrapPathError(err))
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", p, unwrapPathError(err))
	}

	t.logger.Debug("Wrote file", zap.String("path", t.root.Rel(abs)), zap.Int("bytes", len(data)))
	return &WriteResult{Path: t.root.Rel(abs), Bytes: len(data)}, nil
}

func encodeContent(abs string, content any) ([]byte, error) {
	switch c := content.(type) {
	case string:
		return []byte(c), nil
	case []byte:
		return c, nil
	}

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		return yaml.Marshal(content)
	case ".toml":
		if _, ok := content.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: toml content must be an object", ErrInvalidArgument)
		}
		return toml.Marshal(content)
	default:
		data, err := sonic.ConfigStd.MarshalIndent(content, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// ListFiles lists a workspace directory, sorted by name. Recursive names
// are relative to p and use forward slashes.
func (t *Toolset) ListFiles(ctx context.Context, p string, opts ListOptions) ([]FileEntry, error) {
	if opts.Pattern != "" && !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("%w: bad pattern %q", ErrInvalidArgument, opts.Pattern)
	}
	abs, err := t.root.Resolve(p)
	if err != nil {
		return nil, err
	}
	if t.root.IsRoot(abs) {
		if err := t.root.EnsureRoot(); err != nil {
			return nil, err
		}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", displayPath(p), unwrapPathError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", displayPath(p), ErrNotDirectory)
	}

	var entries []FileEntry
	if opts.Recursive {
		entries, err = walk(ctx, abs)
	} else {
		entries, err = readDir(abs)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", displayPath(p), err)
	}

	if opts.Pattern != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if ok, _ := doublestar.Match(opts.Pattern, e.Name); ok {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func readDir(abs string) ([]FileEntry, error) {
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, unwrapPathError(err)
	}
	entries := make([]FileEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		entries = append(entries, FileEntry{Name: d.Name(), Kind: kindOf(d.Type())})
	}
	return entries, nil
}

func walk(ctx context.Context, abs string) ([]FileEntry, error) {
	var (
		mu      sync.Mutex
		entries []FileEntry
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, abs, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || p == abs {
			return nil
		}
		rel, relErr := filepath.Rel(abs, p)
		if relErr != nil {
			return nil
		}

		mu.Lock()
		entries = append(entries, FileEntry{Name: filepath.ToSlash(rel), Kind: kindOf(d.Type())})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func kindOf(mode fs.FileMode) string {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// DeletePath removes a file or directory tree. It reports false when
// nothing existed and refuses to remove the workspace root.
func (t *Toolset) DeletePath(ctx context.Context, p string) (bool, error) {
	abs, err := t.root.Resolve(p)
	if err != nil {
		return false, err
	}
	if t.root.IsRoot(abs) {
		return false, ErrDeleteRoot
	}
	if _, err := os.Lstat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", p, unwrapPathError(err))
	}
	if err := os.RemoveAll(abs); err != nil {
		return false, fmt.Errorf("delete %s: %w", p, unwrapPathError(err))
	}

	t.logger.Debug("Deleted path", zap.String("path", t.root.Rel(abs)))
	return true, nil
}

// unwrapPathError drops the absolute host path from *fs.PathError so it
// does not leak into guest-visible messages.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(filepath.ToSlash(p))
}
