package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/config"
	"github.com/ziadkadry99/coderag/internal/embeddings"
	"github.com/ziadkadry99/coderag/internal/extract"
	"github.com/ziadkadry99/coderag/internal/indexer"
	"github.com/ziadkadry99/coderag/internal/llm"
	"github.com/ziadkadry99/coderag/internal/metrics"
	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/ratelimit"
	"github.com/ziadkadry99/coderag/internal/vectordb"
	"github.com/ziadkadry99/coderag/internal/walker"
)

// app holds what every command derives from config and flags.
type app struct {
	cfg        *config.Config
	root       string // absolute
	collection string
	logger     *slog.Logger
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics

	// live marks long-running commands (serve, mcp) whose store must pick
	// up later indexing runs.
	live bool
}

// newApp loads the config, applies flag overrides and validates the result.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving --dir: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = config.Slugify(filepath.Base(root))
	}

	return &app{
		cfg:        cfg,
		root:       root,
		collection: collection,
		logger:     newLogger(),
		limiter:    ratelimit.New(cfg.QPS),
		metrics:    metrics.New(),
	}, nil
}

// loadConfig loads the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `coderag init` to create a config file", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger, tagged with a short run id.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(h).With("run", uuid.NewString()[:8])
	slog.SetDefault(logger)
	return logger
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// endpoint returns the provider base URL and API key. The base URL is
// empty when the provider's public default applies.
func (a *app) endpoint() (baseURL, apiKey string) {
	baseURL = a.cfg.ResolvedBaseURL()
	if baseURL == config.DefaultOpenAIBaseURL {
		baseURL = ""
	}
	if env := config.APIKeyEnvVar(a.cfg.Provider); env != "" {
		apiKey = os.Getenv(env)
	}
	return baseURL, apiKey
}

// createEmbedder creates the configured embedder, wrapped in an LRU cache
// when cache_size > 0.
func (a *app) createEmbedder() (embeddings.Embedder, error) {
	baseURL, apiKey := a.endpoint()

	var emb embeddings.Embedder
	switch a.cfg.Provider {
	case config.ProviderOpenAI:
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		emb = embeddings.NewOpenAIEmbedder(apiKey, baseURL, a.cfg.EmbedModel)
	case config.ProviderOllama:
		emb = embeddings.NewOllamaEmbedder(a.cfg.EmbedModel, baseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", a.cfg.Provider)
	}

	if a.cfg.CacheSize > 0 {
		emb = embeddings.NewCachedEmbedder(emb, a.cfg.CacheSize)
	}
	return emb, nil
}

// createScheduler wraps emb with the configured workers, timeout, pacing
// and the default retry policy.
func (a *app) createScheduler(emb embeddings.Embedder) *embeddings.Scheduler {
	return embeddings.NewScheduler(emb, embeddings.SchedulerConfig{
		Workers: a.cfg.Workers,
		Timeout: time.Duration(a.cfg.EmbedTimeoutSeconds) * time.Second,
		Limiter: a.limiter,
		Retry:   embeddings.DefaultRetryPolicy(),
		Logger:  a.logger,
		Metrics: a.metrics,
	})
}

// createLLMProvider creates the chat provider, paced by the shared limiter.
func (a *app) createLLMProvider() (llm.Provider, error) {
	baseURL, apiKey := a.endpoint()
	p, err := llm.NewProvider(string(a.cfg.Provider), baseURL, a.cfg.LLMModel, apiKey)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, a.limiter), nil
}

func (a *app) openStore() (vectordb.VectorSink, error) {
	store, err := vectordb.Open(string(a.cfg.Store), a.cfg.DB, a.collection)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return store, nil
}

// openQueryStore opens the store for answering questions. chromem holds the
// collection in memory, so live commands reload it whenever the manifest
// is rewritten by an indexing run. SQLite reads from disk on every query.
func (a *app) openQueryStore() (vectordb.VectorSink, error) {
	if !a.live || a.cfg.Store != config.StoreChromem {
		return a.openStore()
	}
	return vectordb.NewReloadingSink(indexer.ManifestPath(a.cfg.DB, a.collection), a.openStore, a.logger)
}

// createWalker builds the walker for the source root. The database
// directory is ignored when it lives inside the tree.
func (a *app) createWalker() (*walker.Walker, error) {
	ignores := append([]string{}, a.cfg.Ignore...)
	if dbAbs, err := filepath.Abs(a.cfg.DB); err == nil {
		if rel, err := filepath.Rel(a.root, dbAbs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			ignores = append(ignores, "/"+filepath.ToSlash(rel)+"/")
		}
	}
	return walker.New(walker.Config{
		RootDir:    a.root,
		Ignore:     walker.NewIgnoreMatcher(a.root, ignores).Func(),
		Classifier: walker.NewClassifier(a.cfg.ExtraExt),
		Logger:     a.logger,
	})
}

// createAnswerer opens the store and wires the query path.
func (a *app) createAnswerer(withChat bool) (*rag.Answerer, vectordb.VectorSink, error) {
	emb, err := a.createEmbedder()
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := a.openQueryStore()
	if err != nil {
		return nil, nil, err
	}

	var provider llm.Provider
	if withChat {
		if provider, err = a.createLLMProvider(); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
		}
	}

	answerer := rag.New(rag.Options{
		Store:       store,
		Scheduler:   a.createScheduler(emb),
		Provider:    provider,
		Model:       a.cfg.LLMModel,
		ChatTimeout: time.Duration(a.cfg.ChatTimeoutSeconds) * time.Second,
		Logger:      a.logger,
		Metrics:     a.metrics,
	})
	return answerer, store, nil
}

// session is an open, locked collection ready for indexing.
type session struct {
	*app
	lock  *indexer.Lock
	store vectordb.VectorSink
	ix    *indexer.Indexer
}

// openSession locks the collection, loads its manifest and wires an
// Indexer. Close must be called to persist the manifest.
func (a *app) openSession() (*session, error) {
	lock, err := indexer.AcquireLock(a.cfg.DB, a.collection)
	if err != nil {
		if errors.Is(err, indexer.ErrLocked) {
			return nil, fmt.Errorf("collection %q is being indexed by another run: %w", a.collection, err)
		}
		return nil, err
	}

	manifest, err := indexer.LoadManifest(indexer.ManifestPath(a.cfg.DB, a.collection))
	if err != nil {
		lock.Release()
		return nil, err
	}

	emb, err := a.createEmbedder()
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := a.openStore()
	if err != nil {
		lock.Release()
		return nil, err
	}

	extractors := extract.NewRegistry(a.logger)
	for cat, name := range extractors.Capabilities() {
		a.logger.Debug("extractor", "category", cat, "using", name)
	}

	ix := indexer.New(indexer.Options{
		Store:      store,
		Scheduler:  a.createScheduler(emb),
		Extractors: extractors,
		Manifest:   manifest,
		Params: indexer.ChunkParams{
			CodeLines:   a.cfg.CodeLines,
			CodeOverlap: a.cfg.CodeOverlap,
			DocChars:    a.cfg.DocChars,
			DocOverlap:  a.cfg.DocOverlap,
		},
		Logger:  a.logger,
		Metrics: a.metrics,
	})

	return &session{app: a, lock: lock, store: store, ix: ix}, nil
}

// Close saves the manifest, closes the store, releases the lock and dumps
// the run's metrics when a metrics file is configured. The manifest is
// saved even after a failed or interrupted run so completed files are not
// redone.
func (s *session) Close() error {
	var errs []error
	if err := s.ix.Manifest().Save(); err != nil {
		errs = append(errs, fmt.Errorf("saving manifest: %w", err))
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if err := s.lock.Release(); err != nil {
		errs = append(errs, fmt.Errorf("releasing lock: %w", err))
	}
	return errors.Join(errs...)
}

// printStats prints the summary line and any per-file errors.
func printStats(verb string, stats indexer.Stats, elapsed time.Duration) {
	fmt.Printf("%s complete: %d reindexed, %d chunks upserted, %d old versions retired",
		verb, stats.Reindexed, stats.Chunks, stats.Retired)
	if stats.Removed > 0 {
		fmt.Printf(", %d stale files removed", stats.Removed)
	}
	fmt.Printf(" (%s)\n", elapsed.Round(time.Millisecond))

	if len(stats.Errors) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(stats.Errors))
		for _, e := range stats.Errors {
			fmt.Printf("  - %v\n", e)
		}
	}
}
