// Package indexer keeps a vector store in step with a source tree. Every
// file version is identified by the SHA-256 of its bytes; its chunks are
// stored under identities derived from that hash, so a changed file is
// replaced by deleting one hash and upserting another.
package indexer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/ziadkadry99/coderag/internal/embeddings"
	"github.com/ziadkadry99/coderag/internal/extract"
	"github.com/ziadkadry99/coderag/internal/metrics"
	"github.com/ziadkadry99/coderag/internal/vectordb"
	"github.com/ziadkadry99/coderag/internal/walker"
)

// Options wires an Indexer to its collaborators.
type Options struct {
	Store      vectordb.VectorSink
	Scheduler  *embeddings.Scheduler
	Extractors *extract.Registry
	Manifest   *Manifest
	Params     ChunkParams
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Indexer drives change detection, extraction, chunking, embedding and
// storage for one collection. The store and manifest are only touched from
// the calling goroutine; embedding workers just return vectors.
type Indexer struct {
	store      vectordb.VectorSink
	scheduler  *embeddings.Scheduler
	extractors *extract.Registry
	manifest   *Manifest
	params     ChunkParams
	logger     *slog.Logger
	metrics    *metrics.Metrics

	onProgress ProgressFunc
	onEmbed    embeddings.ProgressFunc
}

// New creates an Indexer.
func New(opts Options) *Indexer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extractors := opts.Extractors
	if extractors == nil {
		extractors = extract.NewRegistry(logger)
	}
	params := opts.Params
	if params == (ChunkParams{}) {
		params = DefaultChunkParams()
	}
	return &Indexer{
		store:      opts.Store,
		scheduler:  opts.Scheduler,
		extractors: extractors,
		manifest:   opts.Manifest,
		params:     params,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// SetProgressFunc sets the per-file progress callback.
func (ix *Indexer) SetProgressFunc(fn ProgressFunc) {
	ix.onProgress = fn
}

// SetEmbedProgressFunc sets the per-chunk progress callback used while a
// file's chunks are embedded.
func (ix *Indexer) SetEmbedProgressFunc(fn embeddings.ProgressFunc) {
	ix.onEmbed = fn
}

// Manifest returns the manifest the indexer mutates.
func (ix *Indexer) Manifest() *Manifest { return ix.manifest }

// FileResult describes one committed file version.
type FileResult struct {
	Path    string
	Hash    string
	Chunks  int  // chunks upserted
	Dropped int  // chunks whose embedding failed after all retries
	Retired bool // the previous version's vectors were deleted
}

// ReindexFile replaces whatever the store holds for f with its current
// content:
//
//  1. hash the file and build its chunks;
//  2. embed the chunks;
//  3. delete vectors tagged with the new hash, left by an earlier run;
//  4. upsert the embedded chunks and record the file;
//  5. delete the previous version's vectors unless another file shares them.
//
// If chunks exist but none could be embedded, nothing is changed and
// ErrNothingEmbedded is returned: the old version stays searchable and the
// file is picked up again by the next update.
func (ix *Indexer) ReindexFile(ctx context.Context, f walker.FileInfo) (FileResult, error) {
	res := FileResult{Path: f.Path}

	hash, err := HashFile(f.Path)
	if err != nil {
		return res, fmt.Errorf("%s: %w", f.Path, err)
	}
	res.Hash = hash

	entries, err := ix.extractors.Extract(ctx, f.Path, f.Category)
	if err != nil {
		return res, fmt.Errorf("extracting %s: %w", f.Path, err)
	}
	chunks := BuildChunks(f.Path, hash, f.Category, entries, ix.params)

	var embedded []vectordb.Entry
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		results := ix.scheduler.EmbedAll(ctx, texts, ix.onEmbed)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Dropped = len(chunks) - len(results)
		if len(results) == 0 {
			return res, fmt.Errorf("%s: %w (%d chunks)", f.Path, ErrNothingEmbedded, len(chunks))
		}

		embedded = make([]vectordb.Entry, 0, len(results))
		for _, r := range results {
			c := chunks[r.Index]
			embedded = append(embedded, vectordb.Entry{ID: c.ID, Text: c.Text, Vector: r.Vector, Metadata: c.Metadata})
		}
		if res.Dropped > 0 {
			ix.logger.Warn("some chunks were not embedded", "file", f.Path,
				"dropped", res.Dropped, "first", ix.firstDropped(chunks, results))
		}
	}

	if err := ix.store.DeleteByFileHash(ctx, hash); err != nil {
		return res, fmt.Errorf("clearing %s: %w", f.Path, err)
	}
	if err := ix.store.Upsert(ctx, embedded); err != nil {
		return res, fmt.Errorf("storing %s: %w", f.Path, err)
	}
	res.Chunks = len(embedded)
	ix.metrics.ChunksUpserted(res.Chunks)

	prev := ix.manifest.Get(f.Path)
	ix.manifest.Record(FileRecord{
		Path:        f.Path,
		Size:        f.Size,
		MTime:       MTimeSeconds(f.ModTime),
		ContentHash: hash,
		ChunkCount:  res.Chunks,
	})
	ix.metrics.FileIndexed()

	if prev != nil && prev.ContentHash != hash {
		retired, err := ix.retire(ctx, prev.ContentHash, f.Path)
		if err != nil {
			// The new version is committed; the old vectors stay behind.
			ix.logger.Warn("could not retire previous version", "file", f.Path,
				"hash", prev.ContentHash, "error", err)
		}
		res.Retired = retired
	}

	ix.logger.Debug("reindexed", "file", f.Path, "chunks", res.Chunks, "hash", hash[:12])
	return res, nil
}

// retire deletes the vectors of hash unless a record other than except
// still references it.
func (ix *Indexer) retire(ctx context.Context, hash, except string) (bool, error) {
	if hash == "" || ix.manifest.HashInUse(hash, except) {
		return false, nil
	}
	if err := ix.store.DeleteByFileHash(ctx, hash); err != nil {
		return false, err
	}
	ix.metrics.VersionRetired()
	return true, nil
}

func (ix *Indexer) firstDropped(chunks []Chunk, results []embeddings.Result) string {
	ok := make([]bool, len(chunks))
	for _, r := range results {
		ok[r.Index] = true
	}
	for i, c := range chunks {
		if !ok[i] {
			return c.describe()
		}
	}
	return ""
}

// Sync reindexes every file whose size or modification time differs from
// its record. files is consumed lazily; only the changed subset is held in
// memory. Per-file failures are collected in Stats and do not stop the run.
func (ix *Indexer) Sync(ctx context.Context, files iter.Seq[walker.FileInfo]) (Stats, error) {
	var stats Stats
	var changed []walker.FileInfo
	for f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++
		sig := Signature{Size: f.Size, MTime: MTimeSeconds(f.ModTime)}
		if NeedsReindex(sig, ix.manifest.Get(f.Path)) {
			changed = append(changed, f)
		}
	}
	stats.Changed = len(changed)

	return stats, ix.reindexAll(ctx, changed, &stats)
}

// SyncGit reindexes the files named by a version-control diff, whatever
// their signatures say. Paths the walker would not yield are skipped.
// Deleted paths that have a record are retired.
func (ix *Indexer) SyncGit(ctx context.Context, w *walker.Walker, changes GitChanges) (Stats, error) {
	var stats Stats
	var targets []walker.FileInfo
	for _, p := range changes.Existing {
		stats.Scanned++
		if f, ok := w.Accept(p); ok {
			targets = append(targets, f)
		}
	}
	stats.Changed = len(targets)

	if err := ix.reindexAll(ctx, targets, &stats); err != nil {
		return stats, err
	}

	for _, p := range changes.Deleted {
		stats.Scanned++
		if ix.manifest.Get(p) == nil {
			continue
		}
		if err := ix.drop(ctx, []string{p}, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (ix *Indexer) reindexAll(ctx context.Context, files []walker.FileInfo, stats *Stats) error {
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := ix.ReindexFile(ctx, f)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ix.logger.Warn("file not indexed", "file", f.Path, "error", err)
			stats.fail(err)
		} else {
			stats.Reindexed++
			stats.Chunks += res.Chunks
			if res.Retired {
				stats.Retired++
			}
		}
		if ix.onProgress != nil {
			ix.onProgress(i+1, len(files), f.RelPath)
		}
	}
	return nil
}

// Vacuum drops the record of every file that no longer exists on disk and
// deletes its vectors by recorded content hash. Stats.Removed counts the
// dropped records.
func (ix *Indexer) Vacuum(ctx context.Context) (Stats, error) {
	var stats Stats
	var stale []string
	for _, p := range ix.manifest.Paths() {
		stats.Scanned++
		if _, err := os.Stat(p); os.IsNotExist(err) {
			stale = append(stale, p)
		}
	}
	return stats, ix.drop(ctx, stale, &stats)
}

// drop removes the records of paths, then deletes each recorded hash no
// surviving record references. A record whose deletion fails is restored
// so a later vacuum retries it.
func (ix *Indexer) drop(ctx context.Context, paths []string, stats *Stats) error {
	recs := make([]FileRecord, 0, len(paths))
	for _, p := range paths {
		recs = append(recs, *ix.manifest.Get(p))
		ix.manifest.Remove(p)
	}

	deleted := make(map[string]bool)
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			ix.manifest.Record(rec)
			continue
		}
		if deleted[rec.ContentHash] {
			stats.Removed++
			continue
		}
		retired, err := ix.retire(ctx, rec.ContentHash, "")
		if err != nil {
			ix.manifest.Record(rec)
			ix.logger.Warn("could not delete vectors of removed file", "file", rec.Path, "error", err)
			stats.fail(fmt.Errorf("removing %s: %w", rec.Path, err))
			continue
		}
		stats.Removed++
		if retired {
			deleted[rec.ContentHash] = true
			stats.Retired++
		}
		ix.logger.Debug("removed stale file", "file", rec.Path, "chunks", rec.ChunkCount)
	}
	return ctx.Err()
}

// Reset empties the collection and forgets every record.
func (ix *Indexer) Reset(ctx context.Context) error {
	if err := ix.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}
	ix.manifest.Clear()
	return nil
}
