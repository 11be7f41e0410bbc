// Package vectordb stores chunk vectors and answers similarity queries.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ziadkadry99/coderag/internal/db"
)

// Store kinds accepted by Open.
const (
	KindChromem = "chromem"
	KindSQLite  = "sqlite"
)

// ErrTextQueryUnsupported is returned by QueryByText when the store has no
// way to search by raw text.
var ErrTextQueryUnsupported = errors.New("text query not supported by this store")

// VectorSink is the vector store seen by the indexer and the answerer.
// Entries are keyed by chunk identity and tagged with their file's content
// hash so a whole file version can be retired in one call.
type VectorSink interface {
	// Upsert adds or overwrites entries by ID.
	Upsert(ctx context.Context, entries []Entry) error

	// DeleteByFileHash removes every entry whose content hash equals hash.
	DeleteByFileHash(ctx context.Context, hash string) error

	// QueryByVector returns up to k entries nearest to vec by cosine similarity.
	QueryByVector(ctx context.Context, vec []float32, k int) ([]Hit, error)

	// QueryByText is the fallback used when the question cannot be embedded.
	// It must not depend on the embedding provider.
	QueryByText(ctx context.Context, text string, k int) ([]Hit, error)

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)

	// Reset drops every entry in the collection.
	Reset(ctx context.Context) error

	Close() error
}

// Open opens the store of the given kind under dir.
func Open(kind, dir, collection string) (VectorSink, error) {
	switch kind {
	case KindChromem, "":
		return NewChromemStore(filepath.Join(dir, "chromem"), collection)
	case KindSQLite:
		d, err := db.Open(filepath.Join(dir, db.FileName))
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(d, collection), nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", kind)
	}
}
