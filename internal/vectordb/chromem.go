package vectordb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// upsertConcurrency bounds chromem's per-document goroutines. Vectors are
// precomputed, so this only parallelises normalisation and disk writes.
const upsertConcurrency = 4

// ChromemStore implements VectorSink on a persistent chromem-go database.
type ChromemStore struct {
	db         *chromem.DB
	dir        string
	name       string
	collection *chromem.Collection
	dims       int // vector size, 0 until the first upsert
}

// NewChromemStore opens (or creates) the chromem database at dir and the
// named collection in it.
func NewChromemStore(dir, collection string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}

	s := &ChromemStore{db: db, dir: dir, name: collection}
	if err := s.openCollection(); err != nil {
		return nil, err
	}
	if s.dims, err = s.readDims(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) openCollection() error {
	// Queries always pass a vector; the collection never embeds text itself.
	noEmbed := func(context.Context, string) ([]float32, error) {
		return nil, ErrTextQueryUnsupported
	}
	col, err := s.db.GetOrCreateCollection(s.name, map[string]string{"space": "cosine"}, noEmbed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Vector,
			Metadata:  e.Metadata.ToMap(),
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, upsertConcurrency); err != nil {
		return fmt.Errorf("chromem upsert: %w", err)
	}
	if n := len(entries[0].Vector); n != s.dims {
		return s.writeDims(n)
	}
	return nil
}

func (s *ChromemStore) DeleteByFileHash(ctx context.Context, hash string) error {
	if hash == "" {
		return nil
	}
	where := map[string]string{KeyContentHash: hash}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("chromem delete %s: %w", hash, err)
	}
	return nil
}

func (s *ChromemStore) QueryByVector(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	k = s.clamp(k)
	if k == 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return toHits(results), nil
}

// QueryByText ranks documents by the fraction of query terms they contain.
// No embedding provider is involved.
func (s *ChromemStore) QueryByText(ctx context.Context, text string, k int) ([]Hit, error) {
	terms := queryTerms(text)
	n := s.collection.Count()
	if k < 1 || n == 0 || len(terms) == 0 {
		return nil, nil
	}
	if s.dims == 0 {
		return nil, fmt.Errorf("chromem text query: vector size unknown: %w", ErrTextQueryUnsupported)
	}

	// chromem can only list documents through a similarity query. A unit
	// vector of the stored size with nResults = n returns all of them.
	unit := make([]float32, s.dims)
	unit[0] = 1
	results, err := s.collection.QueryEmbedding(ctx, unit, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem text query: %w", err)
	}

	var hits []Hit
	for _, h := range toHits(results) {
		if score := keywordScore(h.Text, terms); score > 0 {
			h.Similarity = score
			hits = append(hits, h)
		}
	}
	return topK(hits, k), nil
}

func (s *ChromemStore) Count(context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) Reset(context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection %q: %w", s.name, err)
	}
	if err := os.Remove(s.dimsPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove vector size file: %w", err)
	}
	s.dims = 0
	return s.openCollection()
}

// Close is a no-op; chromem writes every document through to disk.
func (s *ChromemStore) Close() error { return nil }

// clamp bounds k by the collection size; chromem rejects larger values.
func (s *ChromemStore) clamp(k int) int {
	if k < 1 {
		return 0
	}
	return min(k, s.collection.Count())
}

func toHits(results []chromem.Result) []Hit {
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   MetadataFromMap(r.Metadata),
			Similarity: r.Similarity,
		}
	}
	return hits
}

// dimsPath holds the collection's vector size next to the chromem data.
// The size is needed to build query vectors without an embedder.
func (s *ChromemStore) dimsPath() string {
	return filepath.Join(s.dir, s.name+".dims")
}

func (s *ChromemStore) readDims() (int, error) {
	data, err := os.ReadFile(s.dimsPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read vector size: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse vector size %s: %w", s.dimsPath(), err)
	}
	return n, nil
}

func (s *ChromemStore) writeDims(n int) error {
	if err := os.WriteFile(s.dimsPath(), []byte(strconv.Itoa(n)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write vector size: %w", err)
	}
	s.dims = n
	return nil
}
