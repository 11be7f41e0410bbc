package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLExtractor returns the visible text of an HTML page. Script, style and
// noscript content is removed and block elements become paragraph breaks.
type HTMLExtractor struct{}

func (HTMLExtractor) Name() string { return "html" }

func (HTMLExtractor) Extract(_ context.Context, path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", path, err)
	}
	out := htmlText(doc)
	if out == "" {
		return nil, nil
	}
	return []Entry{{Text: out}}, nil
}

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Main: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Pre: true, atom.Blockquote: true,
	atom.Title: true, atom.Figure: true, atom.Hr: true,
}

func htmlText(doc *html.Node) string {
	var b strings.Builder
	var last byte = '\n'
	write := func(s string) {
		if s == "" {
			return
		}
		b.WriteString(s)
		last = s[len(s)-1]
	}
	space := func() {
		if last != ' ' && last != '\n' {
			write(" ")
		}
	}

	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				write(n.Data)
				return
			}
			collapsed := strings.Join(strings.Fields(n.Data), " ")
			if collapsed == "" {
				if n.Data != "" {
					space()
				}
				return
			}
			if isSpace(n.Data[0]) {
				space()
			}
			write(collapsed)
			if isSpace(n.Data[len(n.Data)-1]) {
				space()
			}
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			switch n.DataAtom {
			case atom.Br:
				write("\n")
				return
			case atom.Td, atom.Th:
				space()
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			write("\n\n")
		}
		inPre := pre || n.DataAtom == atom.Pre
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inPre)
		}
		if block {
			write("\n\n")
		}
	}
	walk(doc, false)
	return tidyLines(b.String())
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f'
}
