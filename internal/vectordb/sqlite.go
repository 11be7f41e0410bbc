package vectordb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ziadkadry99/coderag/internal/db"
)

// SQLiteStore implements VectorSink on the chunks table of a SQLite
// database. Similarity is computed in Go over every row of the collection.
type SQLiteStore struct {
	db         *db.DB
	collection string
}

// NewSQLiteStore wraps an open database. The store owns d and closes it.
func NewSQLiteStore(d *db.DB, collection string) *SQLiteStore {
	return &SQLiteStore{db: d, collection: collection}
}

func (s *SQLiteStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, content_hash, source_path, text, metadata, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(collection, id) DO UPDATE SET
			content_hash = excluded.content_hash,
			source_path = excluded.source_path,
			text = excluded.text,
			metadata = excluded.metadata,
			vector = excluded.vector,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		md, err := json.Marshal(e.Metadata.ToMap())
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, e.Metadata.ContentHash,
			e.Metadata.SourcePath, e.Text, string(md), serializeVector(e.Vector)); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteByFileHash(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND content_hash = ?`, s.collection, hash)
	if err != nil {
		return fmt.Errorf("delete %s: %w", hash, err)
	}
	return nil
}

func (s *SQLiteStore) QueryByVector(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata, vector FROM chunks WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []Hit
	for rows.Next() {
		var (
			h      Hit
			md     string
			vector []byte
		)
		if err := rows.Scan(&h.ID, &h.Text, &md, &vector); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if h.Metadata, err = decodeMetadata(md); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", h.ID, err)
		}
		h.Similarity = float32(cosineSimilarity(vec, deserializeVector(vector)))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(hits, k), nil
}

// QueryByText ranks chunks by the fraction of query terms they contain.
// Chunks matching no term are not returned. Matching happens in Go because
// SQLite's lower() only folds ASCII.
func (s *SQLiteStore) QueryByText(ctx context.Context, text string, k int) ([]Hit, error) {
	terms := queryTerms(text)
	if k < 1 || len(terms) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata FROM chunks WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query text: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []Hit
	for rows.Next() {
		var (
			h  Hit
			md string
		)
		if err := rows.Scan(&h.ID, &h.Text, &md); err != nil {
			return nil, fmt.Errorf("scan text row: %w", err)
		}
		score := keywordScore(h.Text, terms)
		if score == 0 {
			continue
		}
		if h.Metadata, err = decodeMetadata(md); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", h.ID, err)
		}
		h.Similarity = score
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(hits, k), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("reset collection %q: %w", s.collection, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeMetadata(raw string) (Metadata, error) {
	var md map[string]string
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return MetadataFromMap(md), nil
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// cosineSimilarity returns 0 for vectors of different length or zero norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ VectorSink = (*SQLiteStore)(nil)
var _ VectorSink = (*ChromemStore)(nil)
