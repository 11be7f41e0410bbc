package vectordb

import (
	"maps"
	"strconv"
)

// Metadata keys as persisted by every store.
const (
	KeyContentHash = "content_hash"
	KeySourcePath  = "source_path"
	KeyFilename    = "filename"
	KeyLanguage    = "language"
	KeyCategory    = "category"
	KeyEntryIndex  = "entry_index"
	KeyChunkIndex  = "chunk_index"
	KeyLineStart   = "line_start"
	KeyLineEnd     = "line_end"
	KeyPage        = "page"
)

var reservedKeys = map[string]bool{
	KeyContentHash: true,
	KeySourcePath:  true,
	KeyFilename:    true,
	KeyLanguage:    true,
	KeyCategory:    true,
	KeyEntryIndex:  true,
	KeyChunkIndex:  true,
	KeyLineStart:   true,
	KeyLineEnd:     true,
}

// Metadata describes where a chunk came from.
type Metadata struct {
	ContentHash string // SHA-256 of the owning file's bytes
	SourcePath  string // absolute path
	Filename    string
	Language    string
	Category    string
	EntryIndex  int
	ChunkIndex  int
	LineStart   int // 1-based, inclusive; 0 when not line-windowed
	LineEnd     int

	// Extra holds per-entry fields such as "page".
	Extra map[string]string
}

// Page returns the page label for paged sources, or "".
func (m Metadata) Page() string {
	return m.Extra[KeyPage]
}

// Entry is a chunk ready to be stored: identity, vector, text and metadata.
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Hit is one similarity query result. Similarity is cosine in [-1, 1]
// for vector queries and a keyword score in [0, 1] for text queries.
type Hit struct {
	ID         string
	Text       string
	Metadata   Metadata
	Similarity float32
}

// ToMap flattens metadata into string pairs.
func (m Metadata) ToMap() map[string]string {
	md := make(map[string]string, 9+len(m.Extra))
	for k, v := range m.Extra {
		if !reservedKeys[k] {
			md[k] = v
		}
	}
	md[KeyContentHash] = m.ContentHash
	md[KeySourcePath] = m.SourcePath
	md[KeyFilename] = m.Filename
	md[KeyEntryIndex] = strconv.Itoa(m.EntryIndex)
	md[KeyChunkIndex] = strconv.Itoa(m.ChunkIndex)
	if m.Language != "" {
		md[KeyLanguage] = m.Language
	}
	if m.Category != "" {
		md[KeyCategory] = m.Category
	}
	if m.LineStart > 0 {
		md[KeyLineStart] = strconv.Itoa(m.LineStart)
		md[KeyLineEnd] = strconv.Itoa(m.LineEnd)
	}
	return md
}

// MetadataFromMap is the inverse of ToMap. Unknown keys land in Extra.
func MetadataFromMap(md map[string]string) Metadata {
	m := Metadata{
		ContentHash: md[KeyContentHash],
		SourcePath:  md[KeySourcePath],
		Filename:    md[KeyFilename],
		Language:    md[KeyLanguage],
		Category:    md[KeyCategory],
	}
	m.EntryIndex, _ = strconv.Atoi(md[KeyEntryIndex])
	m.ChunkIndex, _ = strconv.Atoi(md[KeyChunkIndex])
	m.LineStart, _ = strconv.Atoi(md[KeyLineStart])
	m.LineEnd, _ = strconv.Atoi(md[KeyLineEnd])

	extra := maps.Clone(md)
	maps.DeleteFunc(extra, func(k, _ string) bool { return reservedKeys[k] })
	if len(extra) > 0 {
		m.Extra = extra
	}
	return m
}
