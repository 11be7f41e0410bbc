package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/config"
)

var (
	cfgFile string
	verbose bool
	rootDir string

	// Overrides for config values, applied only when the flag is set.
	flagDB          string
	flagCollection  string
	flagStore       string
	flagProvider    string
	flagBaseURL     string
	flagEmbedModel  string
	flagLLM         string
	flagWorkers     int
	flagQPS         float64
	flagCodeLines   int
	flagCodeOverlap int
	flagDocChars    int
	flagDocOverlap  int
	flagIgnore      []string
	flagExtraExt    []string
	flagMetricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "coderag",
	Short: "Incremental retrieval index and question answering over a source tree",
	Long: `coderag splits the code and documents of a source tree into overlapping
chunks, embeds them through an Ollama or OpenAI-compatible endpoint and keeps
the vector store in step with the tree: only changed files are re-embedded and
the vectors of replaced or deleted versions are retired. Questions are answered
by a chat model from the retrieved chunks with [n] citations.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&rootDir, "dir", ".", "root of the source tree")

	d := config.DefaultConfig()
	pf.StringVar(&flagDB, "db", d.DB, "database directory")
	pf.StringVar(&flagCollection, "collection", "", "collection name (default: slug of --dir)")
	pf.StringVar(&flagStore, "store", string(d.Store), "vector store: chromem or sqlite")
	pf.StringVar(&flagProvider, "provider", string(d.Provider), "embedding/chat provider: ollama or openai")
	pf.StringVar(&flagBaseURL, "base-url", d.BaseURL, "provider base URL")
	pf.StringVar(&flagEmbedModel, "embed-model", d.EmbedModel, "embedding model")
	pf.StringVar(&flagLLM, "llm", d.LLMModel, "chat model used to answer questions")
	pf.IntVar(&flagWorkers, "workers", d.Workers, "parallel embedding workers")
	pf.Float64Var(&flagQPS, "qps", d.QPS, "client-side rate limit (calls per second)")
	pf.IntVar(&flagCodeLines, "code-lines", d.CodeLines, "lines per code chunk")
	pf.IntVar(&flagCodeOverlap, "code-overlap", d.CodeOverlap, "overlapping lines between code chunks")
	pf.IntVar(&flagDocChars, "doc-chars", d.DocChars, "characters per prose chunk")
	pf.IntVar(&flagDocOverlap, "doc-overlap", d.DocOverlap, "overlap for prose chunks")
	pf.StringSliceVar(&flagIgnore, "ignore", nil, "extra ignore globs (added to .gitignore and defaults)")
	pf.StringSliceVar(&flagExtraExt, "extra-ext", nil, "extra file extensions to index as code (e.g. .proto)")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after indexing")
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("db") {
		cfg.DB = flagDB
	}
	if f.Changed("collection") {
		cfg.Collection = flagCollection
	}
	if f.Changed("store") {
		cfg.Store = config.StoreType(flagStore)
	}
	if f.Changed("provider") {
		cfg.Provider = config.ProviderType(flagProvider)
	}
	if f.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if f.Changed("embed-model") {
		cfg.EmbedModel = flagEmbedModel
	}
	if f.Changed("llm") {
		cfg.LLMModel = flagLLM
	}
	if f.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if f.Changed("qps") {
		cfg.QPS = flagQPS
	}
	if f.Changed("code-lines") {
		cfg.CodeLines = flagCodeLines
	}
	if f.Changed("code-overlap") {
		cfg.CodeOverlap = flagCodeOverlap
	}
	if f.Changed("doc-chars") {
		cfg.DocChars = flagDocChars
	}
	if f.Changed("doc-overlap") {
		cfg.DocOverlap = flagDocOverlap
	}
	if f.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, flagIgnore...)
	}
	if f.Changed("extra-ext") {
		cfg.ExtraExt = append(cfg.ExtraExt, flagExtraExt...)
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = flagMetricsFile
	}
}
