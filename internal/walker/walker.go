package walker

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo holds metadata about a single file discovered during traversal.
type FileInfo struct {
	Path     string    // Absolute path on disk.
	RelPath  string    // Slash-separated path relative to the root.
	Size     int64     // File size in bytes.
	ModTime  time.Time // Last modification time.
	Category Category  // Extraction/chunking category.
}

// Config controls the behaviour of a Walker.
type Config struct {
	RootDir    string
	Ignore     IgnoreFunc  // nil ignores nothing.
	Classifier *Classifier // nil uses the built-in table only.
	Logger     *slog.Logger
}

// Walker lazily enumerates supported files below a root directory.
type Walker struct {
	root       string
	ignore     IgnoreFunc
	classifier *Classifier
	logger     *slog.Logger
}

// New resolves the root directory and returns a Walker over it.
func New(cfg Config) (*Walker, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}
	w := &Walker{root: root, ignore: cfg.Ignore, classifier: cfg.Classifier, logger: cfg.Logger}
	if w.ignore == nil {
		w.ignore = func(string, bool) bool { return false }
	}
	if w.classifier == nil {
		w.classifier = NewClassifier(nil)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Root returns the absolute root directory.
func (w *Walker) Root() string { return w.root }

// Files yields every supported, non-ignored regular file one at a time.
// Ignored directories are pruned without descending into them. Entries
// that cannot be read are logged and skipped.
func (w *Walker) Files() iter.Seq[FileInfo] {
	return func(yield func(FileInfo) bool) {
		err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				w.logger.Debug("skipping unreadable entry", "path", path, "error", walkErr)
				if d != nil && d.IsDir() && path != w.root {
					return filepath.SkipDir
				}
				return nil
			}
			if path == w.root {
				return nil
			}

			rel, err := filepath.Rel(w.root, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if w.ignore(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || w.ignore(rel, false) {
				return nil
			}

			cat := w.classifier.Classify(path)
			if cat == CategoryUnsupported {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				w.logger.Debug("stat failed", "path", path, "error", err)
				return nil
			}
			if isTextCategory(cat) && isBinary(path) {
				return nil
			}

			if !yield(FileInfo{
				Path:     path,
				RelPath:  rel,
				Size:     info.Size(),
				ModTime:  info.ModTime(),
				Category: cat,
			}) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			w.logger.Warn("walk aborted", "root", w.root, "error", err)
		}
	}
}

// Accept reports whether an absolute path below the root would be yielded
// by Files. It is used to filter paths that come from outside the walk,
// such as a version-control diff.
func (w *Walker) Accept(path string) (FileInfo, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return FileInfo{}, false
	}
	rel = filepath.ToSlash(rel)
	if w.ignore(rel, false) {
		return FileInfo{}, false
	}
	cat := w.classifier.Classify(path)
	if cat == CategoryUnsupported {
		return FileInfo{}, false
	}
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return FileInfo{}, false
	}
	if isTextCategory(cat) && isBinary(path) {
		return FileInfo{}, false
	}
	return FileInfo{Path: path, RelPath: rel, Size: st.Size(), ModTime: st.ModTime(), Category: cat}, true
}

// Describe stats path and classifies it without consulting the ignore
// predicate. Files of no known category are read as prose.
func (w *Walker) Describe(path string) (FileInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("walker: resolve %s: %w", path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, fmt.Errorf("walker: %w", err)
	}
	if !st.Mode().IsRegular() {
		return FileInfo{}, fmt.Errorf("walker: %s is not a regular file", abs)
	}

	rel := filepath.Base(abs)
	if r, err := filepath.Rel(w.root, abs); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		rel = filepath.ToSlash(r)
	}
	cat := w.classifier.Classify(abs)
	if cat == CategoryUnsupported {
		cat = CategoryProse
	}
	return FileInfo{Path: abs, RelPath: rel, Size: st.Size(), ModTime: st.ModTime(), Category: cat}, nil
}

func isTextCategory(c Category) bool {
	return c == CategoryCode || c == CategoryProse || c == CategoryMarkdown || c == CategoryMarkup
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
