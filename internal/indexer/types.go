package indexer

import (
	"errors"

	"github.com/ziadkadry99/coderag/internal/vectordb"
)

// ErrNothingEmbedded is reported for a file whose chunks all failed to
// embed. The file's previous version is left in the store untouched.
var ErrNothingEmbedded = errors.New("no chunk could be embedded")

// Chunk is a bounded fragment of a file's extracted text.
type Chunk struct {
	ID       string
	Text     string
	Metadata vectordb.Metadata
}

// ChunkParams selects chunk sizes for both chunking strategies.
type ChunkParams struct {
	CodeLines   int // line window size for code
	CodeOverlap int // lines shared by consecutive windows
	DocChars    int // maximum characters per prose chunk
	DocOverlap  int // characters shared by slices of an oversize paragraph
}

// DefaultChunkParams returns the sizes used when none are configured.
func DefaultChunkParams() ChunkParams {
	return ChunkParams{CodeLines: 120, CodeOverlap: 20, DocChars: 1200, DocOverlap: 200}
}

// Stats summarizes one indexing run.
type Stats struct {
	Scanned   int     // files considered
	Changed   int     // files selected for reindexing
	Reindexed int     // files whose new version was committed
	Chunks    int     // chunks upserted
	Retired   int     // previous file versions deleted from the store
	Removed   int     // manifest entries dropped by vacuum
	Failed    int     // files that could not be reindexed
	Errors    []error // one per failed file
}

func (s *Stats) fail(err error) {
	s.Failed++
	s.Errors = append(s.Errors, err)
}

// ProgressFunc is called after each file finishes.
type ProgressFunc func(done, total int, currentFile string)
