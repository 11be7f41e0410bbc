// Package extract turns files into text entries. Extractors are chosen
// per walker.Category from a registry populated at startup.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/coderag/internal/walker"
)

// Entry is one unit of extracted text. Paged sources produce one entry per
// page; everything else produces at most one entry.
type Entry struct {
	Text  string
	Extra map[string]string // e.g. {"page": "3"}
}

// Extractor reads a file and returns its text entries. An empty result
// is not an error.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Entry, error)
	Name() string
}

// Registry maps a file category to the extractor handling it.
type Registry struct {
	extractors map[walker.Category]Extractor
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// NewRegistry probes optional capabilities and registers an extractor for
// every category. A category whose backend is unavailable gets an
// extractor that always returns nothing.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{extractors: make(map[walker.Category]Extractor)}
	r.Register(walker.CategoryCode, TextExtractor{})
	r.Register(walker.CategoryProse, TextExtractor{})
	r.Register(walker.CategoryMarkdown, MarkdownExtractor{})
	r.Register(walker.CategoryMarkup, HTMLExtractor{})
	r.Register(walker.CategoryDocument, DocxExtractor{})

	if bin, err := lookPath("pdftotext"); err == nil {
		r.Register(walker.CategoryPaged, PDFExtractor{Binary: bin})
	} else {
		logger.Debug("pdftotext not found; PDF files will yield no text")
		r.Register(walker.CategoryPaged, Empty{Reason: "pdftotext not installed"})
	}
	return r
}

// Register sets the extractor for a category, replacing any previous one.
func (r *Registry) Register(cat walker.Category, e Extractor) {
	r.extractors[cat] = e
}

// For returns the extractor for cat, or an Empty extractor.
func (r *Registry) For(cat walker.Category) Extractor {
	if e, ok := r.extractors[cat]; ok {
		return e
	}
	return Empty{Reason: "unsupported category"}
}

// Capabilities returns the extractor name per registered category.
func (r *Registry) Capabilities() map[walker.Category]string {
	out := make(map[walker.Category]string, len(r.extractors))
	for cat, e := range r.extractors {
		out[cat] = e.Name()
	}
	return out
}

// Extract runs the extractor for cat and drops whitespace-only entries.
func (r *Registry) Extract(ctx context.Context, path string, cat walker.Category) ([]Entry, error) {
	entries, err := r.For(cat).Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.Text) != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// Empty is the extractor used when no backend is available.
type Empty struct {
	Reason string
}

func (Empty) Extract(context.Context, string) ([]Entry, error) { return nil, nil }

func (e Empty) Name() string { return "none (" + e.Reason + ")" }

// TextExtractor reads a file as UTF-8, dropping invalid byte sequences.
type TextExtractor struct{}

func (TextExtractor) Name() string { return "text" }

func (TextExtractor) Extract(_ context.Context, path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := decodeText(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Entry{{Text: text}}, nil
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// tidyLines trims every line and collapses runs of blank lines to one.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
