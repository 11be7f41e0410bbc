package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scan the tree and index every new or changed file",
	Long: `Walks --dir, skipping ignored paths, and indexes every supported file whose
size or modification time differs from the manifest. With --reset the
collection and its manifest are dropped first, so everything is re-embedded.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("reset", false, "drop and recreate the collection before indexing")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) (err error) {
	start := time.Now()
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		a.logger.Info("resetting collection", "collection", a.collection)
		if err := s.ix.Reset(ctx); err != nil {
			return fmt.Errorf("resetting collection: %w", err)
		}
	}

	w, err := a.createWalker()
	if err != nil {
		return err
	}

	rep := progress.NewReporter("Indexing")
	s.ix.SetProgressFunc(rep.Update)
	stats, err := s.ix.Sync(ctx, w.Files())
	rep.Finish()

	fmt.Printf("Scanned %d files, %d new or changed\n", stats.Scanned, stats.Changed)
	printStats("Ingest", stats, time.Since(start))
	fmt.Printf("DB: %s, collection: %s\n", a.cfg.DB, a.collection)
	return err
}
