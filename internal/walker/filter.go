package walker

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnores are gitignore-style patterns skipped in every tree.
var DefaultIgnores = []string{
	".git/", ".svn/", ".hg/", ".idea/", ".vscode/",
	"build/", "cmake-build-*/", "out/", "bin/", "obj/", "target/",
	"dist/", "node_modules/", "vendor/", "third_party/", "external/", "_deps/",
	"__pycache__/", ".cache/", "venv/", ".venv/", ".tox/",
	".rag_db/", ".DS_Store",
}

// IgnoreFunc decides whether a slash-separated path relative to the walk
// root should be skipped. isDir is true for directories.
type IgnoreFunc func(relPath string, isDir bool) bool

type ignorePattern struct {
	glob     string
	negate   bool
	dirOnly  bool
	anchored bool
}

// IgnoreMatcher evaluates gitignore-style patterns with doublestar globs.
// Later patterns override earlier ones and "!" re-includes a path.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher combines DefaultIgnores, the .gitignore at root (if any)
// and the extra patterns, in that order.
func NewIgnoreMatcher(root string, extra []string) *IgnoreMatcher {
	lines := append([]string{}, DefaultIgnores...)
	lines = append(lines, loadGitignore(filepath.Join(root, ".gitignore"))...)
	lines = append(lines, extra...)
	return NewPatternMatcher(lines)
}

// NewPatternMatcher builds a matcher from raw pattern lines only.
func NewPatternMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		if p, ok := parsePattern(line); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

func parsePattern(line string) (ignorePattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignorePattern{}, false
	}
	var p ignorePattern
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = filepath.ToSlash(line)
	if strings.Contains(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return ignorePattern{}, false
	}
	p.glob = line
	return p, true
}

// Match reports whether relPath, or any directory above it, is ignored.
func (m *IgnoreMatcher) Match(relPath string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	relPath = strings.Trim(filepath.ToSlash(relPath), "/")
	if relPath == "" || relPath == "." {
		return false
	}
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		if m.matchOne(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return m.matchOne(relPath, isDir)
}

func (m *IgnoreMatcher) matchOne(rel string, isDir bool) bool {
	ignored := false
	base := path.Base(rel)
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		target := base
		if p.anchored {
			target = rel
		}
		if ok, _ := doublestar.Match(p.glob, target); ok {
			ignored = !p.negate
		}
	}
	return ignored
}

// Func adapts the matcher to an IgnoreFunc.
func (m *IgnoreMatcher) Func() IgnoreFunc {
	return m.Match
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
