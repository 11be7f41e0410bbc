package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// PDFExtractor shells out to poppler's pdftotext and emits one entry per
// page, tagged with its 1-based page number.
type PDFExtractor struct {
	Binary string
}

func (PDFExtractor) Name() string { return "pdftotext" }

func (p PDFExtractor) Extract(ctx context.Context, path string) ([]Entry, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, "-enc", "UTF-8", "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return splitPages(decodeText(stdout.Bytes())), nil
}

// splitPages splits pdftotext output on form feeds.
func splitPages(out string) []Entry {
	var entries []Entry
	for i, page := range strings.Split(out, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		entries = append(entries, Entry{
			Text:  page,
			Extra: map[string]string{"page": strconv.Itoa(i + 1)},
		})
	}
	return entries
}
