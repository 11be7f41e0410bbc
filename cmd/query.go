package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against the collection",
	Long: `Embeds the question, retrieves the nearest chunks and asks the chat model to
answer from them, citing [n] sources. With --search-only the chunks are
printed without calling the chat model.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("top-k", 0, "number of context blocks (default from config: 6)")
	queryCmd.Flags().Bool("search-only", false, "print retrieved chunks without asking the chat model")
	queryCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(queryCmd)
}

type queryResultJSON struct {
	Answer  string         `json:"answer,omitempty"`
	Sources []queryHitJSON `json:"sources"`
}

type queryHitJSON struct {
	Rank       int     `json:"rank"`
	Label      string  `json:"label"`
	Path       string  `json:"path"`
	Page       string  `json:"page,omitempty"`
	LineStart  int     `json:"line_start,omitempty"`
	LineEnd    int     `json:"line_end,omitempty"`
	Similarity float64 `json:"similarity"`
	Summary    string  `json:"summary,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	question := args[0]
	topK, _ := cmd.Flags().GetInt("top-k")
	searchOnly, _ := cmd.Flags().GetBool("search-only")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if topK <= 0 {
		topK = a.cfg.TopK
	}

	answerer, store, err := a.createAnswerer(!searchOnly)
	if err != nil {
		return err
	}
	defer store.Close()

	if n, err := store.Count(ctx); err == nil && n == 0 {
		fmt.Printf("Collection %q is empty. Run `coderag ingest` first.\n", a.collection)
		return nil
	}

	if searchOnly {
		hits, err := answerer.Retrieve(ctx, question, topK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if jsonOutput {
			return printQueryJSON("", hits)
		}
		fmt.Print(vectordb.FormatResults(hits))
		return nil
	}

	ans, err := answerer.Answer(ctx, question, topK)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printQueryJSON(ans.Text, ans.Hits)
	}

	fmt.Print("\n==== Answer ====\n\n")
	fmt.Println(ans.Text)
	fmt.Print("\n==== Sources ====\n\n")
	fmt.Print(rag.FormatSources(ans.Sources))
	return nil
}

func printQueryJSON(answer string, hits []vectordb.Hit) error {
	out := queryResultJSON{Answer: answer, Sources: make([]queryHitJSON, len(hits))}
	for i, h := range hits {
		out.Sources[i] = queryHitJSON{
			Rank:       i + 1,
			Label:      vectordb.FormatSource(i+1, h.Metadata),
			Path:       h.Metadata.SourcePath,
			Page:       h.Metadata.Page(),
			LineStart:  h.Metadata.LineStart,
			LineEnd:    h.Metadata.LineEnd,
			Similarity: float64(h.Similarity),
			Summary:    truncate(strings.TrimSpace(h.Text), 200),
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
