package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor parses Markdown with goldmark and emits the source text
// of each leaf block (headings, paragraphs, list items, code blocks)
// separated by blank lines. Raw HTML blocks are dropped.
type MarkdownExtractor struct{}

func (MarkdownExtractor) Name() string { return "markdown" }

func (MarkdownExtractor) Extract(_ context.Context, path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src := []byte(decodeText(data))
	out := markdownText(src)
	if out == "" {
		return nil, nil
	}
	return []Entry{{Text: out}}, nil
}

func markdownText(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindHTMLBlock {
			return ast.WalkSkipChildren, nil
		}
		lines := n.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := seg.Value(src)
			b.Write(line)
			if i < lines.Len()-1 && !bytes.HasSuffix(line, []byte("\n")) {
				b.WriteByte('\n')
			}
		}
		if block := strings.TrimRight(b.String(), "\n "); strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
		return ast.WalkSkipChildren, nil
	})
	return strings.Join(blocks, "\n\n")
}
