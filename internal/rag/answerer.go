// Package rag answers questions from the indexed corpus: it retrieves the
// nearest chunks, numbers them as context blocks and asks a chat model for
// an answer that cites those blocks.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/coderag/internal/embeddings"
	"github.com/ziadkadry99/coderag/internal/llm"
	"github.com/ziadkadry99/coderag/internal/metrics"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

// Options configures an Answerer.
type Options struct {
	Store       vectordb.VectorSink
	Scheduler   *embeddings.Scheduler
	Provider    llm.Provider
	Model       string
	ChatTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Answerer runs the query path.
type Answerer struct {
	opts   Options
	logger *slog.Logger
}

// Answer is a grounded reply plus the sources its [n] markers refer to.
type Answer struct {
	Text    string
	Sources []vectordb.Metadata
	Hits    []vectordb.Hit
}

// New creates an Answerer. Provider may be nil for retrieval-only use.
func New(opts Options) *Answerer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{opts: opts, logger: logger}
}

// Retrieve returns up to k chunks for question. The question is embedded
// once; if that fails the store's text query is used instead. An error is
// returned only when both paths fail or the vector query itself fails.
func (a *Answerer) Retrieve(ctx context.Context, question string, k int) ([]vectordb.Hit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	vec, embedErr := a.opts.Scheduler.EmbedOnce(ctx, question)
	if embedErr == nil {
		hits, err := a.opts.Store.QueryByVector(ctx, vec, k)
		if err != nil {
			return nil, fmt.Errorf("vector query: %w", err)
		}
		a.opts.Metrics.Query(metrics.PathVector)
		return hits, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	a.logger.Warn("embedding question failed, falling back to text query", "error", embedErr)
	hits, err := a.opts.Store.QueryByText(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w; text query: %w", embedErr, err)
	}
	a.opts.Metrics.Query(metrics.PathText)
	return hits, nil
}

// Answer retrieves context for question and asks the chat model. Chat
// failures are returned as-is; there is no retry.
func (a *Answerer) Answer(ctx context.Context, question string, k int) (*Answer, error) {
	if a.opts.Provider == nil {
		return nil, fmt.Errorf("no chat provider configured")
	}

	hits, err := a.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	chatCtx := ctx
	if a.opts.ChatTimeout > 0 {
		var cancel context.CancelFunc
		chatCtx, cancel = context.WithTimeout(ctx, a.opts.ChatTimeout)
		defer cancel()
	}

	a.logger.Debug("asking chat model", "model", a.opts.Model, "blocks", len(hits))
	resp, err := a.opts.Provider.Complete(chatCtx, llm.CompletionRequest{
		Model:    a.opts.Model,
		Messages: BuildMessages(question, hits),
	})
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", a.opts.Provider.Name(), err)
	}
	a.logger.Debug("chat model answered", "model", resp.Model, "finish", resp.FinishReason)

	sources := make([]vectordb.Metadata, len(hits))
	for i, h := range hits {
		sources[i] = h.Metadata
	}
	return &Answer{
		Text:    strings.TrimSpace(resp.Content),
		Sources: sources,
		Hits:    hits,
	}, nil
}
