package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ustudiopd/eventlive/pkg/guideline"
)

// Extensions are the pack file extensions read from directories.
var Extensions = []string{".json", ".yaml", ".yml"}

// Entry is one pack file.
type Entry struct {
	Path string
	Pack *guideline.Pack
	Lint *guideline.LintResult
	// Err is set when the file could not be read or parsed.
	Err error
}

// Valid reports whether the file parsed and linted clean.
func (e Entry) Valid() bool {
	return e.Err == nil && e.Lint != nil && e.Lint.IsValid
}

// FileSource loads guideline packs from disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for a file or directory.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default().With("component", "guideline_source")
	}
	return &FileSource{path: path, logger: logger}
}

// Path returns the watched file or directory.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads every pack under the source path, sorted by path.
func (s *FileSource) Load(ctx context.Context) ([]Entry, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = packFiles(s.path)
		if err != nil {
			return nil, err
		}
	} else {
		paths = []string{s.path}
	}

	entries := make([]Entry, 0, len(paths))
	invalid := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := loadFile(p)
		if !e.Valid() {
			invalid++
			s.logger.Warn("guideline pack file has problems", "path", p, "error", e.Err)
		}
		entries = append(entries, e)
	}

	s.logger.Info("loaded guideline packs", "path", s.path, "files", len(entries), "invalid", invalid)
	return entries, nil
}

func loadFile(path string) Entry {
	pack, err := guideline.Load(path)
	if err != nil {
		return Entry{Path: path, Err: err}
	}
	return Entry{Path: path, Pack: pack, Lint: guideline.Lint(pack)}
}

func packFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if hidden(path) && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasExtension(path, Extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
