package vectordb

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ReloadingSink serves a store that is loaded into memory when opened and
// reopens it whenever a marker file (the collection manifest) gets a newer
// modification time, so a long-running server sees later indexing runs.
//
// The replaced store is not closed: requests may still be reading it. Only
// use this for stores whose Close releases nothing, such as chromem.
type ReloadingSink struct {
	open   func() (VectorSink, error)
	marker string
	logger *slog.Logger

	mu    sync.RWMutex
	sink  VectorSink
	stamp time.Time
}

// NewReloadingSink opens the store once and remembers the marker's current
// modification time.
func NewReloadingSink(marker string, open func() (VectorSink, error), logger *slog.Logger) (*ReloadingSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stamp time.Time
	if st, err := os.Stat(marker); err == nil {
		stamp = st.ModTime()
	}
	sink, err := open()
	if err != nil {
		return nil, err
	}
	return &ReloadingSink{open: open, marker: marker, logger: logger, sink: sink, stamp: stamp}, nil
}

// current returns the live store, reopening it first when the marker moved.
// A failed reopen keeps serving the previous store.
func (r *ReloadingSink) current() VectorSink {
	r.mu.RLock()
	sink, stamp := r.sink, r.stamp
	r.mu.RUnlock()

	st, err := os.Stat(r.marker)
	if err != nil || !st.ModTime().After(stamp) {
		return sink
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !st.ModTime().After(r.stamp) {
		return r.sink
	}
	r.stamp = st.ModTime()
	next, err := r.open()
	if err != nil {
		r.logger.Warn("reloading vector store failed; serving previous data", "error", err)
		return r.sink
	}
	r.logger.Info("vector store reloaded", "marker", r.marker)
	r.sink = next
	return next
}

func (r *ReloadingSink) Upsert(ctx context.Context, entries []Entry) error {
	return r.current().Upsert(ctx, entries)
}

func (r *ReloadingSink) DeleteByFileHash(ctx context.Context, hash string) error {
	return r.current().DeleteByFileHash(ctx, hash)
}

func (r *ReloadingSink) QueryByVector(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	return r.current().QueryByVector(ctx, vec, k)
}

func (r *ReloadingSink) QueryByText(ctx context.Context, text string, k int) ([]Hit, error) {
	return r.current().QueryByText(ctx, text, k)
}

func (r *ReloadingSink) Count(ctx context.Context) (int, error) {
	return r.current().Count(ctx)
}

func (r *ReloadingSink) Reset(ctx context.Context) error {
	return r.current().Reset(ctx)
}

func (r *ReloadingSink) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sink.Close()
}
