package vectordb

import (
	"fmt"
	"strings"
)

// FormatSource renders the citation label of the n-th hit:
// "[n] filename p.N — /abs/path". The page part is omitted for
// sources without pages.
func FormatSource(n int, m Metadata) string {
	name := m.Filename
	if name == "" {
		name = "?"
	}
	page := ""
	if p := m.Page(); p != "" {
		page = " p." + p
	}
	return fmt.Sprintf("[%d] %s%s — %s", n, name, page, m.SourcePath)
}

// FormatResults renders search hits as human-readable text.
func FormatResults(hits []Hit) string {
	if len(hits) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(hits)))

	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("--- %s (similarity: %.4f) ---\n", FormatSource(i+1, h.Metadata), h.Similarity))

		if h.Metadata.LineStart > 0 {
			sb.WriteString(fmt.Sprintf("Lines: %d-%d\n", h.Metadata.LineStart, h.Metadata.LineEnd))
		}
		if h.Metadata.Language != "" {
			sb.WriteString(fmt.Sprintf("Language: %s\n", h.Metadata.Language))
		}

		sb.WriteString("\n")
		sb.WriteString(h.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
