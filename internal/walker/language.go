package walker

import (
	"path/filepath"
	"strings"
)

// Category selects how a file's text is extracted and chunked.
type Category string

const (
	CategoryUnsupported Category = ""
	CategoryCode        Category = "code"
	CategoryProse       Category = "prose"
	CategoryMarkdown    Category = "markdown"
	CategoryMarkup      Category = "markup"
	CategoryDocument    Category = "document"
	CategoryPaged       Category = "paged"
)

// IsCode reports whether files of this category are chunked by line windows.
func (c Category) IsCode() bool { return c == CategoryCode }

type langInfo struct {
	Name     string
	Category Category
}

func code(name string) langInfo { return langInfo{Name: name, Category: CategoryCode} }

// extensionTable maps lowercase file extensions to a language and category.
var extensionTable = map[string]langInfo{
	// C / C++
	".c": code("C"), ".h": code("C"),
	".cc": code("C++"), ".cpp": code("C++"), ".cxx": code("C++"), ".c++": code("C++"),
	".hh": code("C++"), ".hpp": code("C++"), ".hxx": code("C++"), ".inl": code("C++"),
	".ipp": code("C++"), ".tpp": code("C++"), ".ixx": code("C++"),
	// Build files
	".cmake": code("CMake"), ".mak": code("Makefile"), ".mk": code("Makefile"),
	// Go, scripting and JVM languages
	".go": code("Go"),
	".py": code("Python"), ".pyi": code("Python"),
	".ts": code("TypeScript"), ".tsx": code("TypeScript"), ".mts": code("TypeScript"),
	".js": code("JavaScript"), ".jsx": code("JavaScript"), ".mjs": code("JavaScript"), ".cjs": code("JavaScript"),
	".java": code("Java"), ".kt": code("Kotlin"), ".kts": code("Kotlin"), ".scala": code("Scala"),
	".rs": code("Rust"), ".cs": code("C#"), ".rb": code("Ruby"), ".php": code("PHP"),
	".swift": code("Swift"), ".lua": code("Lua"), ".dart": code("Dart"),
	".sh": code("Shell"), ".bash": code("Shell"), ".zsh": code("Shell"),
	".sql": code("SQL"), ".proto": code("Protobuf"),
	// Config
	".yaml": code("YAML"), ".yml": code("YAML"), ".toml": code("TOML"), ".json": code("JSON"),
	// Prose and documents
	".txt":      {Name: "Text", Category: CategoryProse},
	".rst":      {Name: "reStructuredText", Category: CategoryProse},
	".md":       {Name: "Markdown", Category: CategoryMarkdown},
	".markdown": {Name: "Markdown", Category: CategoryMarkdown},
	".html":     {Name: "HTML", Category: CategoryMarkup},
	".htm":      {Name: "HTML", Category: CategoryMarkup},
	".docx":     {Name: "Word", Category: CategoryDocument},
	".pdf":      {Name: "PDF", Category: CategoryPaged},
}

// filenameTable maps exact filenames to a language; these are always code.
var filenameTable = map[string]string{
	"CMakeLists.txt": "CMake",
	"Makefile":       "Makefile",
	"GNUmakefile":    "Makefile",
	"Dockerfile":     "Dockerfile",
	"Jenkinsfile":    "Groovy",
	"meson.build":    "Meson",
	"BUILD":          "Bazel",
	"BUILD.bazel":    "Bazel",
}

// Classifier assigns a category to a filename. Extra extensions (".proto",
// "ipp") or exact filenames configured by the user are treated as code.
type Classifier struct {
	extra map[string]bool
}

// NewClassifier builds a classifier with the given extra code extensions.
func NewClassifier(extraExts []string) *Classifier {
	c := &Classifier{extra: make(map[string]bool, len(extraExts))}
	for _, e := range extraExts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") && !strings.Contains(e, ".") {
			e = "." + e
		}
		c.extra[strings.ToLower(e)] = true
	}
	return c
}

// Classify returns the category of the file at path, or CategoryUnsupported.
func (c *Classifier) Classify(path string) Category {
	base := filepath.Base(path)
	if _, ok := filenameTable[base]; ok {
		return CategoryCode
	}
	ext := strings.ToLower(filepath.Ext(base))
	if info, ok := extensionTable[ext]; ok {
		return info.Category
	}
	if c != nil && (c.extra[ext] || c.extra[strings.ToLower(base)]) {
		return CategoryCode
	}
	return CategoryUnsupported
}

// Supported reports whether path has a category.
func (c *Classifier) Supported(path string) bool {
	return c.Classify(path) != CategoryUnsupported
}

// DetectLanguage returns the language name for a filename, or "unknown".
func DetectLanguage(filename string) string {
	base := filepath.Base(filename)
	if lang, ok := filenameTable[base]; ok {
		return lang
	}
	if info, ok := extensionTable[strings.ToLower(filepath.Ext(base))]; ok {
		return info.Name
	}
	return "unknown"
}
