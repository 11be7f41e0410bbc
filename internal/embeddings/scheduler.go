package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/coderag/internal/metrics"
	"github.com/ziadkadry99/coderag/internal/ratelimit"
)

// Result pairs the index of an input text with its vector.
type Result struct {
	Index  int
	Vector []float32
}

// ProgressFunc is called after each input finishes, successfully or not.
type ProgressFunc func(done, total int)

// SchedulerConfig controls concurrency, pacing and failure handling.
type SchedulerConfig struct {
	Workers int                // Concurrent calls; values < 1 mean 1.
	Timeout time.Duration      // Per-call timeout; 0 disables.
	Limiter *ratelimit.Limiter // Shared call pacing; nil disables.
	Retry   RetryPolicy
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Scheduler embeds many texts through a bounded pool of workers. Every
// call waits on the shared limiter, runs under its own timeout and is
// retried per the policy. A text whose retries are exhausted is dropped
// with a warning; it never fails the batch.
type Scheduler struct {
	embedder Embedder
	cfg      SchedulerConfig
	logger   *slog.Logger
}

// NewScheduler creates a scheduler around embedder.
func NewScheduler(embedder Embedder, cfg SchedulerConfig) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{embedder: embedder, cfg: cfg, logger: logger}
}

// Embedder returns the underlying embedder.
func (s *Scheduler) Embedder() Embedder { return s.embedder }

// EmbedAll embeds texts concurrently and returns the successful results in
// completion order. len(result) < len(texts) when some texts were dropped.
func (s *Scheduler) EmbedAll(ctx context.Context, texts []string, progress ProgressFunc) []Result {
	if len(texts) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(texts))
		done    int
	)

	// A plain Group: one chunk's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := s.embedWithRetry(ctx, text)

			mu.Lock()
			defer mu.Unlock()
			done++
			switch {
			case err != nil && ctx.Err() != nil:
				// Interrupted run: the chunk was not dropped by the provider.
			case err != nil:
				s.cfg.Metrics.ChunkDropped()
				s.logger.Warn("embedding failed after retries; skipping chunk",
					"index", i, "attempts", s.cfg.Retry.Attempts(), "error", err)
			default:
				results = append(results, Result{Index: i, Vector: vec})
			}
			if progress != nil {
				progress(done, len(texts))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// EmbedOnce makes a single paced call with the configured timeout and no
// retry. It is used for query-time embedding, where the caller has its own
// fallback.
func (s *Scheduler) EmbedOnce(ctx context.Context, text string) ([]float32, error) {
	return s.call(ctx, text)
}

func (s *Scheduler) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	return Retry(ctx, s.cfg.Retry, func(ctx context.Context, attempt int) ([]float32, error) {
		if attempt > 0 {
			s.cfg.Metrics.EmbedRetry()
			s.logger.Debug("retrying embedding", "attempt", attempt+1)
		}
		return s.call(ctx, text)
	})
}

func (s *Scheduler) call(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.cfg.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	vec, err := s.embedder.Embed(callCtx, text)
	if err == nil && len(vec) == 0 {
		err = fmt.Errorf("%s returned an empty vector", s.embedder.Name())
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	s.cfg.Metrics.EmbedCall(outcome, time.Since(start).Seconds())

	return vec, err
}
