package indexer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ziadkadry99/coderag/internal/extract"
	"github.com/ziadkadry99/coderag/internal/vectordb"
	"github.com/ziadkadry99/coderag/internal/walker"
)

var (
	blankRuns      = regexp.MustCompile(`\n{3,}`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
)

// LineWindow is one chunk of a line-windowed file. Start and End are
// 0-based line offsets, End exclusive.
type LineWindow struct {
	Text       string
	Start, End int
}

// ChunkID returns the identity of a chunk: "<hash>:<entry>:<chunk>".
func ChunkID(hash string, entry, chunk int) string {
	return hash + ":" + strconv.Itoa(entry) + ":" + strconv.Itoa(chunk)
}

// LineWindows splits text into windows of maxLines lines that advance by
// max(1, maxLines-overlap). The last window ends exactly at the last
// line. Runs of three or more newlines inside a window collapse to two.
// Windows holding only whitespace are skipped.
func LineWindows(text string, maxLines, overlap int) []LineWindow {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}
	maxLines = max(1, maxLines)
	step := max(1, maxLines-overlap)

	var out []LineWindow
	for start := 0; start < len(lines); start += step {
		end := min(len(lines), start+maxLines)
		body := blankRuns.ReplaceAllString(strings.Join(lines[start:end], "\n"), "\n\n")
		if strings.TrimSpace(body) != "" {
			out = append(out, LineWindow{Text: body, Start: start, End: end})
		}
		if end == len(lines) {
			break
		}
	}
	return out
}

// splitLines splits on \n, \r\n or \r. A trailing line break does not
// start another line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Paragraphs packs blank-line separated paragraphs into chunks of at most
// maxChars runes, joined by a blank line. A paragraph longer than maxChars
// is cut into maxChars slices advancing by maxChars-overlap, the last one
// ending at the paragraph's end. Whitespace-only text yields no chunks.
func Paragraphs(text string, maxChars, overlap int) []string {
	maxChars = max(1, maxChars)
	step := max(1, maxChars-overlap)

	var (
		out    []string
		buf    string
		bufLen int
	)
	flush := func() {
		if buf != "" {
			out = append(out, buf)
		}
		buf, bufLen = "", 0
	}

	for _, raw := range paragraphBreak.Split(text, -1) {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		runes := []rune(p)

		if len(runes) > maxChars {
			flush()
			for start := 0; start < len(runes); start += step {
				end := min(len(runes), start+maxChars)
				out = append(out, string(runes[start:end]))
				if end == len(runes) {
					break
				}
			}
			continue
		}

		switch {
		case buf == "":
			buf, bufLen = p, len(runes)
		case bufLen+len(runes)+2 <= maxChars:
			buf += "\n\n" + p
			bufLen += len(runes) + 2
		default:
			flush()
			buf, bufLen = p, len(runes)
		}
	}
	flush()
	return out
}

// BuildChunks turns the extracted entries of one file version into
// chunks. Code is line-windowed; everything else is paragraph-packed.
// Identities depend only on hash, entry position and chunk position.
func BuildChunks(path, hash string, cat walker.Category, entries []extract.Entry, p ChunkParams) []Chunk {
	base := vectordb.Metadata{
		ContentHash: hash,
		SourcePath:  path,
		Filename:    filepath.Base(path),
		Language:    walker.DetectLanguage(path),
		Category:    string(cat),
	}

	var chunks []Chunk
	for ei, entry := range entries {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}

		meta := base
		meta.EntryIndex = ei
		meta.Extra = entry.Extra

		if cat.IsCode() {
			for ci, w := range LineWindows(entry.Text, p.CodeLines, p.CodeOverlap) {
				m := meta
				m.ChunkIndex = ci
				m.LineStart, m.LineEnd = w.Start+1, w.End
				chunks = append(chunks, Chunk{ID: ChunkID(hash, ei, ci), Text: w.Text, Metadata: m})
			}
			continue
		}

		for ci, body := range Paragraphs(entry.Text, p.DocChars, p.DocOverlap) {
			m := meta
			m.ChunkIndex = ci
			chunks = append(chunks, Chunk{ID: ChunkID(hash, ei, ci), Text: body, Metadata: m})
		}
	}
	return chunks
}

// describe renders a chunk location for log messages.
func (c Chunk) describe() string {
	if c.Metadata.LineStart > 0 {
		return fmt.Sprintf("%s:%d-%d", c.Metadata.Filename, c.Metadata.LineStart, c.Metadata.LineEnd)
	}
	return fmt.Sprintf("%s#%d.%d", c.Metadata.Filename, c.Metadata.EntryIndex, c.Metadata.ChunkIndex)
}
